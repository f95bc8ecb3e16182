package webhook

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/openslot/openslot-backend/internal/business"
)

const (
	ProviderPayment  = "payment"
	ProviderIdentity = "identity"
)

// PaymentHandlers maps subscription lifecycle events from the payment
// provider onto tenant tier and active state. Events reference the tenant by
// the provider-side customer id stored as the business's external id.
func PaymentHandlers(businesses business.Service, logger hclog.Logger) map[string]EventHandler {
	return map[string]EventHandler{
		"customer.subscription.created": subscriptionTierHandler(businesses, logger),
		"customer.subscription.updated": subscriptionTierHandler(businesses, logger),
		"customer.subscription.deleted": func(ctx context.Context, env Envelope) error {
			customerID := env.Data.str("customer")
			if customerID == "" {
				return fmt.Errorf("subscription event %s missing customer id", env.ID)
			}
			logger.Info("subscription deleted, reverting tenant to free tier", "customer_id", customerID)
			return businesses.SetTier(ctx, customerID, "free")
		},
		"invoice.payment_failed": func(ctx context.Context, env Envelope) error {
			customerID := env.Data.str("customer")
			if customerID == "" {
				return fmt.Errorf("invoice event %s missing customer id", env.ID)
			}
			logger.Warn("subscription payment failed, deactivating tenant", "customer_id", customerID)
			return businesses.SetActive(ctx, customerID, false)
		},
		"invoice.payment_succeeded": func(ctx context.Context, env Envelope) error {
			customerID := env.Data.str("customer")
			if customerID == "" {
				return fmt.Errorf("invoice event %s missing customer id", env.ID)
			}
			return businesses.SetActive(ctx, customerID, true)
		},
	}
}

func subscriptionTierHandler(businesses business.Service, logger hclog.Logger) EventHandler {
	return func(ctx context.Context, env Envelope) error {
		customerID := env.Data.str("customer")
		if customerID == "" {
			return fmt.Errorf("subscription event %s missing customer id", env.ID)
		}
		tier := env.Data.str("tier")
		if tier == "" {
			tier = "free"
		}
		logger.Info("syncing tenant tier from subscription",
			"customer_id", customerID, "tier", tier)
		return businesses.SetTier(ctx, customerID, tier)
	}
}

// IdentityHandlers syncs tenant records from the identity provider. Created
// and updated both funnel into the same upsert keyed on the provider subject.
func IdentityHandlers(businesses business.Service, logger hclog.Logger) map[string]EventHandler {
	upsert := func(ctx context.Context, env Envelope) error {
		req := business.UpsertRequest{
			ExternalID: env.Data.str("id"),
			Name:       env.Data.str("name"),
			Email:      env.Data.str("email"),
			Timezone:   env.Data.str("timezone"),
		}
		if req.ExternalID == "" {
			return fmt.Errorf("identity event %s missing subject id", env.ID)
		}
		_, err := businesses.UpsertFromIdentity(ctx, req)
		return err
	}

	return map[string]EventHandler{
		"user.created": upsert,
		"user.updated": upsert,
		"user.deleted": func(ctx context.Context, env Envelope) error {
			externalID := env.Data.str("id")
			if externalID == "" {
				return fmt.Errorf("identity event %s missing subject id", env.ID)
			}
			logger.Info("identity deleted, deactivating tenant", "external_id", externalID)
			return businesses.SetActive(ctx, externalID, false)
		},
	}
}
