package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	portssvc "github.com/pfinbooks/bookkeeper_app/internal/core/ports/services"
	"github.com/pfinbooks/bookkeeper_app/internal/core/services"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
)

type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	service         portssvc.AccountSvcFacade

	userID string
	ctx    context.Context
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewAccountService(suite.mockAccountRepo)
	suite.userID = uuid.NewString()
	suite.ctx = context.Background()
}

func (suite *AccountServiceTestSuite) newAccount(code string, parentID string) *domain.Account {
	return &domain.Account{
		AccountID:       uuid.NewString(),
		UserID:          suite.userID,
		Code:            code,
		Name:            "Account " + code,
		AccountType:     domain.Asset,
		NormalBalance:   domain.DebitNormal,
		ParentAccountID: parentID,
		IsActive:        true,
	}
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	req := dto.CreateAccountRequest{
		Code:          "1250",
		Name:          "Emergency Fund",
		AccountType:   domain.Asset,
		NormalBalance: domain.DebitNormal,
	}

	suite.mockAccountRepo.On("FindAccountByCode", suite.ctx, suite.userID, req.Code).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountRepo.On("SaveAccount", suite.ctx, mock.MatchedBy(func(acc domain.Account) bool {
		return acc.Code == req.Code && acc.IsActive && acc.UserID == suite.userID
	})).Return(nil).Once()

	account, err := suite.service.CreateAccount(suite.ctx, suite.userID, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(account)
	assert.Equal(suite.T(), "1250", account.Code)
	assert.True(suite.T(), account.IsActive)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_BadCode() {
	for _, code := range []string{"12", "12AB", "abcd"} {
		req := dto.CreateAccountRequest{
			Code:          code,
			Name:          "Bad",
			AccountType:   domain.Asset,
			NormalBalance: domain.DebitNormal,
		}
		account, err := suite.service.CreateAccount(suite.ctx, suite.userID, req)
		suite.Require().Error(err, "code %q", code)
		assert.Nil(suite.T(), account)
		assert.ErrorIs(suite.T(), err, apperrors.ErrValidation)
	}
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_DuplicateCode() {
	existing := suite.newAccount("1250", "")
	req := dto.CreateAccountRequest{
		Code:          "1250",
		Name:          "Emergency Fund",
		AccountType:   domain.Asset,
		NormalBalance: domain.DebitNormal,
	}

	suite.mockAccountRepo.On("FindAccountByCode", suite.ctx, suite.userID, req.Code).
		Return(existing, nil).Once()

	account, err := suite.service.CreateAccount(suite.ctx, suite.userID, req)

	suite.Require().Error(err)
	assert.Nil(suite.T(), account)
	assert.ErrorIs(suite.T(), err, apperrors.ErrDuplicateCode)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_ParentNotFound() {
	parentID := uuid.NewString()
	req := dto.CreateAccountRequest{
		Code:            "1250",
		Name:            "Emergency Fund",
		AccountType:     domain.Asset,
		NormalBalance:   domain.DebitNormal,
		ParentAccountID: &parentID,
	}

	suite.mockAccountRepo.On("FindAccountByCode", suite.ctx, suite.userID, req.Code).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, parentID).
		Return(nil, apperrors.ErrNotFound).Once()

	account, err := suite.service.CreateAccount(suite.ctx, suite.userID, req)

	suite.Require().Error(err)
	assert.Nil(suite.T(), account)
	assert.ErrorIs(suite.T(), err, apperrors.ErrParentNotFound)
}

func (suite *AccountServiceTestSuite) TestReparentAccount_SelfParent() {
	account := suite.newAccount("1200", "")
	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, account.AccountID).
		Return(account, nil).Once()

	moved, err := suite.service.ReparentAccount(suite.ctx, suite.userID, account.AccountID, &account.AccountID)

	suite.Require().Error(err)
	assert.Nil(suite.T(), moved)
	assert.ErrorIs(suite.T(), err, apperrors.ErrSelfParent)
}

func (suite *AccountServiceTestSuite) TestReparentAccount_CycleDetected() {
	// grandparent <- parent <- child; moving grandparent under child is a cycle.
	grandparent := suite.newAccount("1000", "")
	parent := suite.newAccount("1100", grandparent.AccountID)
	child := suite.newAccount("1110", parent.AccountID)

	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, grandparent.AccountID).
		Return(grandparent, nil)
	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, parent.AccountID).
		Return(parent, nil)
	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, child.AccountID).
		Return(child, nil)

	moved, err := suite.service.ReparentAccount(suite.ctx, suite.userID, grandparent.AccountID, &child.AccountID)

	suite.Require().Error(err)
	assert.Nil(suite.T(), moved)
	assert.ErrorIs(suite.T(), err, apperrors.ErrCycleDetected)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "ReparentAccount",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestReparentAccount_ToRoot() {
	parent := suite.newAccount("1000", "")
	account := suite.newAccount("1100", parent.AccountID)

	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, account.AccountID).
		Return(account, nil).Once()
	suite.mockAccountRepo.On("ReparentAccount", suite.ctx, suite.userID, account.AccountID, "", suite.userID, mock.Anything).
		Return(nil).Once()

	moved, err := suite.service.ReparentAccount(suite.ctx, suite.userID, account.AccountID, nil)

	suite.Require().NoError(err)
	suite.Require().NotNil(moved)
	assert.Empty(suite.T(), moved.ParentAccountID)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestDeleteAccount_HasChildren() {
	account := suite.newAccount("1000", "")

	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, account.AccountID).
		Return(account, nil).Once()
	suite.mockAccountRepo.On("HasChildAccounts", suite.ctx, suite.userID, account.AccountID).
		Return(true, nil).Once()

	err := suite.service.DeleteAccount(suite.ctx, suite.userID, account.AccountID)

	suite.Require().Error(err)
	assert.ErrorIs(suite.T(), err, apperrors.ErrHasChildren)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "DeleteAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestDeleteAccount_HasTransactions() {
	account := suite.newAccount("1200", "")

	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, account.AccountID).
		Return(account, nil).Once()
	suite.mockAccountRepo.On("HasChildAccounts", suite.ctx, suite.userID, account.AccountID).
		Return(false, nil).Once()
	suite.mockAccountRepo.On("HasTransactionLines", suite.ctx, account.AccountID).
		Return(true, nil).Once()

	err := suite.service.DeleteAccount(suite.ctx, suite.userID, account.AccountID)

	suite.Require().Error(err)
	assert.ErrorIs(suite.T(), err, apperrors.ErrHasTransactions)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "DeleteAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestDeleteAccount_Success() {
	account := suite.newAccount("1200", "")

	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, account.AccountID).
		Return(account, nil).Once()
	suite.mockAccountRepo.On("HasChildAccounts", suite.ctx, suite.userID, account.AccountID).
		Return(false, nil).Once()
	suite.mockAccountRepo.On("HasTransactionLines", suite.ctx, account.AccountID).
		Return(false, nil).Once()
	suite.mockAccountRepo.On("DeleteAccount", suite.ctx, suite.userID, account.AccountID).
		Return(nil).Once()

	err := suite.service.DeleteAccount(suite.ctx, suite.userID, account.AccountID)

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_TypeStaysImmutable() {
	account := suite.newAccount("1200", "")
	newName := "Renamed"

	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, suite.userID, account.AccountID).
		Return(account, nil).Once()
	suite.mockAccountRepo.On("UpdateAccount", suite.ctx, mock.MatchedBy(func(acc domain.Account) bool {
		return acc.Name == newName && acc.AccountType == domain.Asset && acc.NormalBalance == domain.DebitNormal
	})).Return(nil).Once()

	updated, err := suite.service.UpdateAccount(suite.ctx, suite.userID, account.AccountID, dto.UpdateAccountRequest{Name: &newName})

	suite.Require().NoError(err)
	assert.Equal(suite.T(), newName, updated.Name)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestGetAccountTree_OrderedByCode() {
	root := suite.newAccount("1000", "")
	childB := suite.newAccount("1200", root.AccountID)
	childA := suite.newAccount("1100", root.AccountID)
	otherRoot := suite.newAccount("5000", "")

	suite.mockAccountRepo.On("ListAllAccounts", suite.ctx, suite.userID).
		Return([]domain.Account{*childB, *otherRoot, *root, *childA}, nil).Once()

	tree, err := suite.service.GetAccountTree(suite.ctx, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(tree, 2)
	assert.Equal(suite.T(), "1000", tree[0].Code)
	assert.Equal(suite.T(), "5000", tree[1].Code)
	suite.Require().Len(tree[0].Children, 2)
	assert.Equal(suite.T(), "1100", tree[0].Children[0].Code)
	assert.Equal(suite.T(), "1200", tree[0].Children[1].Code)
	assert.Empty(suite.T(), tree[1].Children)
}

func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
