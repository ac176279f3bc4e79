// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess               = "success"
	KeyError                 = "error"
	KeyDependencyUnavailable = "dependency.unavailable"
	KeyRateLimited           = "rate_limit.exceeded"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthAdminKeyInvalid    = "auth.admin_key_invalid"
	KeyAuthAdminKeyRedeemed   = "auth.admin_key_redeemed"
	KeyAuthAlreadyAdmin       = "auth.already_admin"
	KeyAuthPasswordChanged    = "auth.password_changed"
	KeyUserNotFound           = "user.not_found"
	KeyUserUpdated            = "user.updated"

	// Admin
	KeyAdminAccessDenied    = "admin.access_denied"
	KeyAdminSettingsUpdated = "admin.settings_updated"

	// Reference data
	KeyProductCreated       = "product.created"
	KeyProductUpdated       = "product.updated"
	KeyProductDeleted       = "product.deleted"
	KeyProductNotFound      = "product.not_found"
	KeyProductInUse         = "product.in_use"
	KeyProductCodeExists    = "product.code_exists"
	KeyColorCreated         = "color.created"
	KeyColorExists          = "color.exists"
	KeyColorNotFound        = "color.not_found"
	KeyYarnTypeNotFound     = "yarn_type.not_found"
	KeyYarnPricesSaved      = "yarn_price.saved"
	KeyFreightSaved         = "freight.saved"
	KeyTinturariaNotFound   = "tinturaria.not_found"
	KeyTinturariaExists     = "tinturaria.exists"
	KeyTinturariaDeleted    = "tinturaria.deleted"
	KeyDyeingCostNotFound   = "dyeing_cost.not_found"
	KeyDyeingCostExists     = "dyeing_cost.exists"
	KeyDyeingCostsImported  = "dyeing_cost.imported"
	KeyDyeingCostDeleted    = "dyeing_cost.deleted"
	KeySettingNotFound      = "setting.not_found"
	KeyQuoteNotFound        = "quote.not_found"
	KeyQuoteSaved           = "quote.saved"
	KeyQuoteConverted       = "quote.converted"
	KeyQuoteAlreadyOrder    = "quote.already_order"
	KeyDocumentNumberNeeded = "document.order_number_required"
	KeyDocumentNotAnOrder   = "document.not_an_order"

	// ERP
	KeyERPSubmitted        = "erp.submitted"
	KeyERPAlreadySubmitted = "erp.already_submitted"
	KeyERPConfirmRequired  = "erp.confirm_required"
	KeyERPDisabled         = "erp.disabled"
	KeyERPInProgress       = "erp.in_progress"

	// Public site
	KeyLeadMinimumLot     = "lead.minimum_lot"
	KeyLeadDuplicateColor = "lead.duplicate_color"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileInvalidType = "file.invalid_type"
	KeyFileTooLarge    = "file.too_large"
	KeyFileRequired    = "file.required"
)
