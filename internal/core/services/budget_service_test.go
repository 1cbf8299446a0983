package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	portssvc "github.com/pfinbooks/bookkeeper_app/internal/core/ports/services"
	"github.com/pfinbooks/bookkeeper_app/internal/core/services"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
)

type BudgetServiceTestSuite struct {
	suite.Suite
	mockBudgetRepo   *MockBudgetRepository
	mockAccountRepo  *MockAccountRepository
	mockCategoryRepo *MockCategoryRepository
	service          portssvc.BudgetSvcFacade

	userID string
	now    time.Time
	ctx    context.Context
}

func (suite *BudgetServiceTestSuite) SetupTest() {
	suite.mockBudgetRepo = new(MockBudgetRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockCategoryRepo = new(MockCategoryRepository)
	suite.now = time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC)
	suite.service = services.NewBudgetService(
		suite.mockBudgetRepo,
		suite.mockAccountRepo,
		suite.mockCategoryRepo,
		func() time.Time { return suite.now },
	)

	suite.userID = uuid.NewString()
	suite.ctx = context.Background()
}

func (suite *BudgetServiceTestSuite) monthlyBudget(amount decimal.Decimal) *domain.Budget {
	return &domain.Budget{
		BudgetID:  uuid.NewString(),
		UserID:    suite.userID,
		AccountID: uuid.NewString(),
		Period:    domain.MonthlyBudget,
		Amount:    amount,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_Success() {
	accountID := uuid.NewString()
	req := dto.CreateBudgetRequest{
		AccountID: accountID,
		Period:    domain.MonthlyBudget,
		Amount:    decimal.NewFromInt(600),
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, accountID).
		Return(&domain.Account{AccountID: accountID}, nil).Once()
	suite.mockBudgetRepo.On("SaveBudget", suite.ctx, mock.MatchedBy(func(b domain.Budget) bool {
		return b.AccountID == accountID && b.IsActive && b.Amount.Equal(req.Amount)
	})).Return(nil).Once()

	budget, err := suite.service.CreateBudget(suite.ctx, suite.userID, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(budget)
	suite.mockBudgetRepo.AssertExpectations(suite.T())
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_ZeroAmountAllowed() {
	accountID := uuid.NewString()
	req := dto.CreateBudgetRequest{
		AccountID: accountID,
		Period:    domain.MonthlyBudget,
		Amount:    decimal.Zero,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, accountID).
		Return(&domain.Account{AccountID: accountID}, nil).Once()
	suite.mockBudgetRepo.On("SaveBudget", suite.ctx, mock.MatchedBy(func(b domain.Budget) bool {
		return b.Amount.IsZero()
	})).Return(nil).Once()

	budget, err := suite.service.CreateBudget(suite.ctx, suite.userID, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(budget)
	suite.mockBudgetRepo.AssertExpectations(suite.T())
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_UnknownAccount() {
	accountID := uuid.NewString()
	req := dto.CreateBudgetRequest{
		AccountID: accountID,
		Period:    domain.MonthlyBudget,
		Amount:    decimal.NewFromInt(600),
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, accountID).
		Return(nil, apperrors.ErrNotFound).Once()

	budget, err := suite.service.CreateBudget(suite.ctx, suite.userID, req)

	suite.Require().Error(err)
	assert.Nil(suite.T(), budget)
	assert.ErrorIs(suite.T(), err, apperrors.ErrInvalidAccountRef)
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_NegativeAmount() {
	req := dto.CreateBudgetRequest{
		AccountID: uuid.NewString(),
		Period:    domain.MonthlyBudget,
		Amount:    decimal.NewFromInt(-5),
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	budget, err := suite.service.CreateBudget(suite.ctx, suite.userID, req)

	suite.Require().Error(err)
	assert.Nil(suite.T(), budget)
	assert.ErrorIs(suite.T(), err, apperrors.ErrValidation)
	suite.mockBudgetRepo.AssertNotCalled(suite.T(), "SaveBudget", mock.Anything, mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestGetBudgetProgress_CurrentPeriod() {
	budget := suite.monthlyBudget(decimal.NewFromInt(600))
	actual := decimal.NewFromInt(450)

	periodStart := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	suite.mockBudgetRepo.On("FindBudgetByID", suite.ctx, suite.userID, budget.BudgetID).
		Return(budget, nil).Once()
	suite.mockBudgetRepo.On("SumPostedActivity", suite.ctx, suite.userID, budget.AccountID, "", periodStart, periodEnd).
		Return(actual, nil).Once()

	progress, err := suite.service.GetBudgetProgress(suite.ctx, suite.userID, budget.BudgetID)

	suite.Require().NoError(err)
	suite.Require().NotNil(progress)
	assert.True(suite.T(), progress.PeriodStart.Equal(periodStart))
	assert.True(suite.T(), progress.PeriodEnd.Equal(periodEnd))
	assert.True(suite.T(), progress.Budgeted.Equal(decimal.NewFromInt(600)))
	assert.True(suite.T(), progress.Actual.Equal(actual))
	assert.True(suite.T(), progress.Remaining.Equal(decimal.NewFromInt(150)))
}

func (suite *BudgetServiceTestSuite) TestGetBudgetProgress_OverBudgetGoesNegative() {
	budget := suite.monthlyBudget(decimal.NewFromInt(100))
	actual := decimal.NewFromInt(130)

	suite.mockBudgetRepo.On("FindBudgetByID", suite.ctx, suite.userID, budget.BudgetID).
		Return(budget, nil).Once()
	suite.mockBudgetRepo.On("SumPostedActivity", suite.ctx, suite.userID, budget.AccountID, "", mock.Anything, mock.Anything).
		Return(actual, nil).Once()

	progress, err := suite.service.GetBudgetProgress(suite.ctx, suite.userID, budget.BudgetID)

	suite.Require().NoError(err)
	assert.True(suite.T(), progress.Remaining.Equal(decimal.NewFromInt(-30)))
}

func (suite *BudgetServiceTestSuite) TestGetBudgetProgress_WindowClampedToEndDate() {
	budget := suite.monthlyBudget(decimal.NewFromInt(600))
	endDate := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	budget.EndDate = &endDate

	suite.mockBudgetRepo.On("FindBudgetByID", suite.ctx, suite.userID, budget.BudgetID).
		Return(budget, nil).Once()
	suite.mockBudgetRepo.On("SumPostedActivity", suite.ctx, suite.userID, budget.AccountID, "",
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), endDate).
		Return(decimal.Zero, nil).Once()

	progress, err := suite.service.GetBudgetProgress(suite.ctx, suite.userID, budget.BudgetID)

	suite.Require().NoError(err)
	assert.True(suite.T(), progress.PeriodEnd.Equal(endDate))
	suite.mockBudgetRepo.AssertExpectations(suite.T())
}

func (suite *BudgetServiceTestSuite) TestUpdateBudget_BindingsAreFixed() {
	budget := suite.monthlyBudget(decimal.NewFromInt(600))
	newAmount := decimal.NewFromInt(750)

	suite.mockBudgetRepo.On("FindBudgetByID", suite.ctx, suite.userID, budget.BudgetID).
		Return(budget, nil).Once()
	suite.mockBudgetRepo.On("UpdateBudget", suite.ctx, mock.MatchedBy(func(b domain.Budget) bool {
		return b.Amount.Equal(newAmount) && b.AccountID == budget.AccountID
	})).Return(nil).Once()

	updated, err := suite.service.UpdateBudget(suite.ctx, suite.userID, budget.BudgetID,
		dto.UpdateBudgetRequest{Amount: &newAmount})

	suite.Require().NoError(err)
	assert.True(suite.T(), updated.Amount.Equal(newAmount))
	suite.mockBudgetRepo.AssertExpectations(suite.T())
}

func TestBudgetService(t *testing.T) {
	suite.Run(t, new(BudgetServiceTestSuite))
}
