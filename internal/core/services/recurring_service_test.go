package services_test

import (
	"context"
	"errors"
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

type RecurringServiceTestSuite struct {
	suite.Suite
	mockRecurringRepo *MockRecurringRepository
	mockAccountRepo   *MockAccountRepository
	mockCategoryRepo  *MockCategoryRepository
	mockTxnSvc        *MockTransactionService
	service           portssvc.RecurringSvcFacade

	userID string
	now    time.Time
	ctx    context.Context
}

func (suite *RecurringServiceTestSuite) SetupTest() {
	suite.mockRecurringRepo = new(MockRecurringRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockCategoryRepo = new(MockCategoryRepository)
	suite.mockTxnSvc = new(MockTransactionService)
	suite.now = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	suite.service = services.NewRecurringService(
		suite.mockRecurringRepo,
		suite.mockAccountRepo,
		suite.mockCategoryRepo,
		suite.mockTxnSvc,
		func() time.Time { return suite.now },
	)

	suite.userID = uuid.NewString()
	suite.ctx = context.Background()
}

func (suite *RecurringServiceTestSuite) monthlyTemplate(nextDate time.Time) domain.Recurring {
	recurringID := uuid.NewString()
	amount := decimal.NewFromInt(1200)
	return domain.Recurring{
		RecurringID: recurringID,
		UserID:      suite.userID,
		Name:        "Rent",
		Type:        domain.ExpenseTransaction,
		Frequency:   domain.Monthly,
		Interval:    1,
		StartDate:   nextDate,
		NextDate:    nextDate,
		IsActive:    true,
		Lines: []domain.RecurringLine{
			{LineID: uuid.NewString(), RecurringID: recurringID, AccountID: uuid.NewString(), LineType: domain.Debit, Amount: amount},
			{LineID: uuid.NewString(), RecurringID: recurringID, AccountID: uuid.NewString(), LineType: domain.Credit, Amount: amount},
		},
	}
}

func (suite *RecurringServiceTestSuite) TestTick_GeneratesDueOccurrence() {
	template := suite.monthlyTemplate(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	suite.mockRecurringRepo.On("FindDueRecurring", suite.ctx, "", suite.now).
		Return([]domain.Recurring{template}, nil).Once()

	posted := &domain.Transaction{TransactionID: uuid.NewString(), IsPosted: true}
	suite.mockTxnSvc.On("PostGenerated", suite.ctx, suite.userID,
		mock.MatchedBy(func(req dto.CreateTransactionRequest) bool {
			return req.Reference == template.Name &&
				req.RecurringID == template.RecurringID &&
				req.Date.Equal(template.NextDate)
		}),
		mock.MatchedBy(func(advance domain.ScheduleAdvance) bool {
			return advance.FromNextDate.Equal(template.NextDate) &&
				advance.NextDate.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) &&
				advance.IsActive
		})).Return(posted, nil).Once()

	result, err := suite.service.Tick(suite.ctx, "")

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	assert.Equal(suite.T(), []string{posted.TransactionID}, result.GeneratedTransactions)
	assert.Empty(suite.T(), result.Failures)
	suite.mockTxnSvc.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestTick_CatchesUpMissedOccurrences() {
	// Dormant since February: Feb, Mar and Apr 1 are all due.
	template := suite.monthlyTemplate(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	suite.mockRecurringRepo.On("FindDueRecurring", suite.ctx, "", suite.now).
		Return([]domain.Recurring{template}, nil).Once()
	suite.mockTxnSvc.On("PostGenerated", suite.ctx, suite.userID, mock.Anything, mock.Anything).
		Return(&domain.Transaction{TransactionID: uuid.NewString()}, nil).Times(3)

	result, err := suite.service.Tick(suite.ctx, "")

	suite.Require().NoError(err)
	assert.Len(suite.T(), result.GeneratedTransactions, 3)
	assert.Empty(suite.T(), result.Failures)
	suite.mockTxnSvc.AssertNumberOfCalls(suite.T(), "PostGenerated", 3)
}

func (suite *RecurringServiceTestSuite) TestTick_LostRaceIsNotAFailure() {
	template := suite.monthlyTemplate(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	suite.mockRecurringRepo.On("FindDueRecurring", suite.ctx, "", suite.now).
		Return([]domain.Recurring{template}, nil).Once()
	suite.mockTxnSvc.On("PostGenerated", suite.ctx, suite.userID, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrConflict).Once()

	result, err := suite.service.Tick(suite.ctx, "")

	suite.Require().NoError(err)
	assert.Empty(suite.T(), result.GeneratedTransactions)
	assert.Empty(suite.T(), result.Failures)
}

func (suite *RecurringServiceTestSuite) TestTick_RecordsFailureAndContinues() {
	broken := suite.monthlyTemplate(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	healthy := suite.monthlyTemplate(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	healthy.Name = "Internet"

	suite.mockRecurringRepo.On("FindDueRecurring", suite.ctx, "", suite.now).
		Return([]domain.Recurring{broken, healthy}, nil).Once()
	suite.mockTxnSvc.On("PostGenerated", suite.ctx, suite.userID,
		mock.MatchedBy(func(req dto.CreateTransactionRequest) bool { return req.RecurringID == broken.RecurringID }),
		mock.Anything).Return(nil, errors.New("account gone")).Once()
	posted := &domain.Transaction{TransactionID: uuid.NewString()}
	suite.mockTxnSvc.On("PostGenerated", suite.ctx, suite.userID,
		mock.MatchedBy(func(req dto.CreateTransactionRequest) bool { return req.RecurringID == healthy.RecurringID }),
		mock.Anything).Return(posted, nil).Once()

	result, err := suite.service.Tick(suite.ctx, "")

	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{posted.TransactionID}, result.GeneratedTransactions)
	suite.Require().Len(result.Failures, 1)
	assert.Equal(suite.T(), broken.RecurringID, result.Failures[0].RecurringID)
}

func (suite *RecurringServiceTestSuite) TestTick_DeactivatesAtEndDate() {
	template := suite.monthlyTemplate(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	endDate := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	template.EndDate = &endDate

	suite.mockRecurringRepo.On("FindDueRecurring", suite.ctx, "", suite.now).
		Return([]domain.Recurring{template}, nil).Once()

	// The next occurrence (May 1) passes the end date, so the advance
	// deactivates the template and only one transaction is generated.
	suite.mockTxnSvc.On("PostGenerated", suite.ctx, suite.userID, mock.Anything,
		mock.MatchedBy(func(advance domain.ScheduleAdvance) bool { return !advance.IsActive })).
		Return(&domain.Transaction{TransactionID: uuid.NewString()}, nil).Once()

	result, err := suite.service.Tick(suite.ctx, "")

	suite.Require().NoError(err)
	assert.Len(suite.T(), result.GeneratedTransactions, 1)
	suite.mockTxnSvc.AssertNumberOfCalls(suite.T(), "PostGenerated", 1)
}

func (suite *RecurringServiceTestSuite) TestTick_ScopedToRequestingUser() {
	template := suite.monthlyTemplate(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	// A user-scoped tick must only scan that user's templates; the unscoped
	// scan is reserved for the background generator.
	suite.mockRecurringRepo.On("FindDueRecurring", suite.ctx, suite.userID, suite.now).
		Return([]domain.Recurring{template}, nil).Once()
	posted := &domain.Transaction{TransactionID: uuid.NewString()}
	suite.mockTxnSvc.On("PostGenerated", suite.ctx, suite.userID, mock.Anything, mock.Anything).
		Return(posted, nil).Once()

	result, err := suite.service.Tick(suite.ctx, suite.userID)

	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{posted.TransactionID}, result.GeneratedTransactions)
	suite.mockRecurringRepo.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestCreateRecurring_EndBeforeStart() {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	req := dto.CreateRecurringRequest{
		Name:      "Rent",
		Type:      domain.ExpenseTransaction,
		Frequency: domain.Monthly,
		Interval:  1,
		StartDate: start,
		EndDate:   &end,
	}

	rec, err := suite.service.CreateRecurring(suite.ctx, suite.userID, req)

	suite.Require().Error(err)
	assert.Nil(suite.T(), rec)
	assert.ErrorIs(suite.T(), err, apperrors.ErrValidation)
	suite.mockRecurringRepo.AssertNotCalled(suite.T(), "SaveRecurring", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RecurringServiceTestSuite) TestCreateRecurring_FirstDueDateIsStartDate() {
	amount := decimal.NewFromInt(80)
	debitAcc := domain.Account{AccountID: uuid.NewString(), NormalBalance: domain.DebitNormal, IsActive: true}
	creditAcc := domain.Account{AccountID: uuid.NewString(), NormalBalance: domain.CreditNormal, IsActive: true}
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	req := dto.CreateRecurringRequest{
		Name:      "Internet",
		Type:      domain.ExpenseTransaction,
		Frequency: domain.Monthly,
		Interval:  1,
		StartDate: start,
		Lines: []dto.CreateRecurringLineRequest{
			{AccountID: debitAcc.AccountID, LineType: domain.Debit, Amount: amount},
			{AccountID: creditAcc.AccountID, LineType: domain.Credit, Amount: amount},
		},
	}

	suite.mockAccountRepo.On("FindAccountsByIDs", suite.ctx, suite.userID, mock.Anything).
		Return(map[string]domain.Account{debitAcc.AccountID: debitAcc, creditAcc.AccountID: creditAcc}, nil).Once()
	suite.mockRecurringRepo.On("SaveRecurring", suite.ctx, mock.MatchedBy(func(rec domain.Recurring) bool {
		return rec.NextDate.Equal(start) && rec.IsActive
	}), mock.Anything).Return(nil).Once()

	rec, err := suite.service.CreateRecurring(suite.ctx, suite.userID, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(rec)
	assert.True(suite.T(), rec.NextDate.Equal(start))
	suite.mockRecurringRepo.AssertExpectations(suite.T())
}

func TestRecurringService(t *testing.T) {
	suite.Run(t, new(RecurringServiceTestSuite))
}
