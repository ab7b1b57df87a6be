package provision_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/memberpay/pkg/billing"
	"github.com/dmitrymomot/memberpay/pkg/catalog"
	"github.com/dmitrymomot/memberpay/svc/provision"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, req billing.CheckoutSessionRequest) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CheckoutSession), args.Error(1)
}

func (m *mockProvider) VerifyNotification(payload []byte, signature string) (*billing.Notification, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Notification), args.Error(1)
}

func (m *mockProvider) Subscription(ctx context.Context, id string) (*billing.SubscriptionRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.SubscriptionRecord), args.Error(1)
}

func (m *mockProvider) ListSubscriptions(ctx context.Context, customerID string) ([]billing.SubscriptionRecord, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.SubscriptionRecord), args.Error(1)
}

func (m *mockProvider) CreateSubscription(ctx context.Context, req billing.SubscriptionRequest) (*billing.SubscriptionRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.SubscriptionRecord), args.Error(1)
}

func (m *mockProvider) Customer(ctx context.Context, id string) (*billing.CustomerRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CustomerRecord), args.Error(1)
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.StaticSource{Data: catalog.Data{
		BasePrices: map[string]string{
			"starter_monthly": "price_starter_m",
			"starter_annual":  "price_starter_a",
			"premium_monthly": "price_premium_m",
			"premium_annual":  "price_premium_a",
		},
		AddOnPrices: map[string]string{
			"nutrition": "price_addon_nutrition",
			"coaching":  "price_addon_coaching",
			"labs":      "price_addon_labs",
			"skincare":  "price_addon_skincare",
		},
		Regions: []string{"WA", "OR"},
	}})
	require.NoError(t, err)
	return c
}

var (
	testPayload   = []byte(`{"raw":"event"}`)
	testSignature = "t=1,v1=valid"
)

func completedNotification() *billing.Notification {
	return &billing.Notification{
		EventType:      billing.EventCheckoutCompleted,
		SessionID:      "cs_base",
		SubscriptionID: "sub_base",
		CustomerID:     "cus_1",
	}
}

func deferredBaseRecord() *billing.SubscriptionRecord {
	return &billing.SubscriptionRecord{
		ID:                   "sub_base",
		CustomerID:           "cus_1",
		DefaultPaymentMethod: "pm_sub_default",
		Metadata: map[string]string{
			billing.MetaPlan:           "premium",
			billing.MetaBillingCycle:   "annual",
			billing.MetaAddOns:         "coaching,nutrition",
			billing.MetaAddOnsDeferred: "true",
			billing.MetaRegion:         "OR",
		},
	}
}

func TestHandleNotification_AuthenticationFailure(t *testing.T) {
	provider := new(mockProvider)
	svc := provision.NewService(testCatalog(t), provider, nil)

	provider.On("VerifyNotification", testPayload, testSignature).
		Return(nil, billing.ErrVerificationFailed)

	_, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
	require.ErrorIs(t, err, provision.ErrAuthenticationFailed)

	// Nothing past the trust boundary may run.
	provider.AssertNotCalled(t, "Subscription", mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestHandleNotification_IgnoresOtherEvents(t *testing.T) {
	provider := new(mockProvider)
	svc := provision.NewService(testCatalog(t), provider, nil)

	provider.On("VerifyNotification", testPayload, testSignature).
		Return(&billing.Notification{EventType: "invoice.paid"}, nil)

	outcome, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
	require.NoError(t, err)
	assert.Equal(t, provision.ClassIgnored, outcome.Classification)
	assert.Equal(t, "invoice.paid", outcome.Reason)
	provider.AssertNotCalled(t, "Subscription", mock.Anything, mock.Anything)
}

func TestHandleNotification_SkipsNonSubscriptionSale(t *testing.T) {
	provider := new(mockProvider)
	svc := provision.NewService(testCatalog(t), provider, nil)

	provider.On("VerifyNotification", testPayload, testSignature).
		Return(&billing.Notification{
			EventType: billing.EventCheckoutCompleted,
			SessionID: "cs_onetime",
		}, nil)

	outcome, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
	require.NoError(t, err)
	assert.Equal(t, provision.ClassSkipped, outcome.Classification)
	assert.Equal(t, provision.SkipNotSubscription, outcome.Reason)
}

func TestHandleNotification_SkipsWhenNothingDeferred(t *testing.T) {
	provider := new(mockProvider)
	svc := provision.NewService(testCatalog(t), provider, nil)

	base := deferredBaseRecord()
	base.Metadata[billing.MetaAddOnsDeferred] = "false"

	provider.On("VerifyNotification", testPayload, testSignature).Return(completedNotification(), nil)
	provider.On("Subscription", mock.Anything, "sub_base").Return(base, nil)

	outcome, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
	require.NoError(t, err)
	assert.Equal(t, provision.SkipNothingDeferred, outcome.Reason)
	provider.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestHandleNotification_SkipsEmptyAddOnList(t *testing.T) {
	provider := new(mockProvider)
	svc := provision.NewService(testCatalog(t), provider, nil)

	base := deferredBaseRecord()
	base.Metadata[billing.MetaAddOns] = "none"

	provider.On("VerifyNotification", testPayload, testSignature).Return(completedNotification(), nil)
	provider.On("Subscription", mock.Anything, "sub_base").Return(base, nil)

	outcome, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
	require.NoError(t, err)
	assert.Equal(t, provision.SkipNoAddOns, outcome.Reason)
	provider.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestHandleNotification_SkipsAlreadyProvisioned(t *testing.T) {
	provider := new(mockProvider)
	svc := provision.NewService(testCatalog(t), provider, nil)

	provider.On("VerifyNotification", testPayload, testSignature).Return(completedNotification(), nil)
	provider.On("Subscription", mock.Anything, "sub_base").Return(deferredBaseRecord(), nil)
	provider.On("ListSubscriptions", mock.Anything, "cus_1").Return([]billing.SubscriptionRecord{
		{
			ID: "sub_addons_existing",
			Metadata: map[string]string{
				billing.MetaParentTransactionID: "cs_base",
				billing.MetaSource:              billing.SourceDeferredAddOns,
			},
		},
	}, nil)

	outcome, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
	require.NoError(t, err)
	assert.Equal(t, provision.SkipAlreadyProvisioned, outcome.Reason)
	provider.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestHandleNotification_ProvisionsDeferredAddOns(t *testing.T) {
	provider := new(mockProvider)
	svc := provision.NewService(testCatalog(t), provider, nil)

	provider.On("VerifyNotification", testPayload, testSignature).Return(completedNotification(), nil)
	provider.On("Subscription", mock.Anything, "sub_base").Return(deferredBaseRecord(), nil)
	provider.On("ListSubscriptions", mock.Anything, "cus_1").Return([]billing.SubscriptionRecord{}, nil)
	provider.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(req billing.SubscriptionRequest) bool {
		return req.CustomerID == "cus_1" &&
			req.PaymentMethodID == "pm_sub_default" &&
			len(req.Items) == 2 &&
			req.IdempotencyKey == billing.IdempotencyKey("cs_base") &&
			req.Metadata[billing.MetaParentTransactionID] == "cs_base" &&
			req.Metadata[billing.MetaParentSubscriptionID] == "sub_base" &&
			req.Metadata[billing.MetaSource] == billing.SourceDeferredAddOns &&
			req.Metadata[billing.MetaRegion] == "OR"
	})).Return(&billing.SubscriptionRecord{ID: "sub_addons_new"}, nil)

	outcome, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
	require.NoError(t, err)
	assert.Equal(t, provision.ClassProvisioned, outcome.Classification)
	assert.Equal(t, "sub_addons_new", outcome.SubscriptionID)
	provider.AssertExpectations(t)
}

func TestHandleNotification_PaymentInstrumentFallback(t *testing.T) {
	t.Run("customer-level default from expansion", func(t *testing.T) {
		provider := new(mockProvider)
		svc := provision.NewService(testCatalog(t), provider, nil)

		base := deferredBaseRecord()
		base.DefaultPaymentMethod = ""
		base.CustomerDefaultPaymentMethod = "pm_customer_default"

		provider.On("VerifyNotification", testPayload, testSignature).Return(completedNotification(), nil)
		provider.On("Subscription", mock.Anything, "sub_base").Return(base, nil)
		provider.On("ListSubscriptions", mock.Anything, "cus_1").Return([]billing.SubscriptionRecord{}, nil)
		provider.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(req billing.SubscriptionRequest) bool {
			return req.PaymentMethodID == "pm_customer_default"
		})).Return(&billing.SubscriptionRecord{ID: "sub_new"}, nil)

		_, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
		require.NoError(t, err)
		provider.AssertNotCalled(t, "Customer", mock.Anything, mock.Anything)
	})

	t.Run("fresh customer fetch", func(t *testing.T) {
		provider := new(mockProvider)
		svc := provision.NewService(testCatalog(t), provider, nil)

		base := deferredBaseRecord()
		base.DefaultPaymentMethod = ""

		provider.On("VerifyNotification", testPayload, testSignature).Return(completedNotification(), nil)
		provider.On("Subscription", mock.Anything, "sub_base").Return(base, nil)
		provider.On("ListSubscriptions", mock.Anything, "cus_1").Return([]billing.SubscriptionRecord{}, nil)
		provider.On("Customer", mock.Anything, "cus_1").
			Return(&billing.CustomerRecord{ID: "cus_1", DefaultPaymentMethod: "pm_fresh"}, nil)
		provider.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(req billing.SubscriptionRequest) bool {
			return req.PaymentMethodID == "pm_fresh"
		})).Return(&billing.SubscriptionRecord{ID: "sub_new"}, nil)

		_, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
		require.NoError(t, err)
		provider.AssertExpectations(t)
	})

	t.Run("no instrument anywhere", func(t *testing.T) {
		provider := new(mockProvider)
		svc := provision.NewService(testCatalog(t), provider, nil)

		base := deferredBaseRecord()
		base.DefaultPaymentMethod = ""

		provider.On("VerifyNotification", testPayload, testSignature).Return(completedNotification(), nil)
		provider.On("Subscription", mock.Anything, "sub_base").Return(base, nil)
		provider.On("ListSubscriptions", mock.Anything, "cus_1").Return([]billing.SubscriptionRecord{}, nil)
		provider.On("Customer", mock.Anything, "cus_1").
			Return(&billing.CustomerRecord{ID: "cus_1"}, nil)

		_, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
		require.ErrorIs(t, err, provision.ErrNoPaymentInstrument)
		provider.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
	})
}

func TestHandleNotification_UpstreamFailuresSurface(t *testing.T) {
	provider := new(mockProvider)
	svc := provision.NewService(testCatalog(t), provider, nil)

	provider.On("VerifyNotification", testPayload, testSignature).Return(completedNotification(), nil)
	provider.On("Subscription", mock.Anything, "sub_base").Return(nil, assert.AnError)

	_, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
	require.ErrorIs(t, err, provision.ErrUpstream)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestHandleNotification_RedeliveryCreatesAtMostOnce(t *testing.T) {
	provider := new(mockProvider)
	svc := provision.NewService(testCatalog(t), provider, nil)

	provider.On("VerifyNotification", testPayload, testSignature).Return(completedNotification(), nil)
	provider.On("Subscription", mock.Anything, "sub_base").Return(deferredBaseRecord(), nil)

	// First delivery sees no deferred subscription, second sees the one just
	// created.
	created := billing.SubscriptionRecord{
		ID: "sub_addons_new",
		Metadata: map[string]string{
			billing.MetaParentTransactionID: "cs_base",
			billing.MetaSource:              billing.SourceDeferredAddOns,
		},
	}
	provider.On("ListSubscriptions", mock.Anything, "cus_1").
		Return([]billing.SubscriptionRecord{}, nil).Once()
	provider.On("ListSubscriptions", mock.Anything, "cus_1").
		Return([]billing.SubscriptionRecord{created}, nil)
	provider.On("CreateSubscription", mock.Anything, mock.Anything).
		Return(&created, nil).Once()

	first, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
	require.NoError(t, err)
	assert.Equal(t, provision.ClassProvisioned, first.Classification)

	second, err := svc.HandleNotification(context.Background(), testPayload, testSignature)
	require.NoError(t, err)
	assert.Equal(t, provision.SkipAlreadyProvisioned, second.Reason)

	provider.AssertNumberOfCalls(t, "CreateSubscription", 1)
}
