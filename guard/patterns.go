// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package guard

import (
	"clawguard/platform/scanner"
)

// PatternCatalogEntry is one pattern as exposed by /dashboard/patterns.
// Severity reflects any policy override; DefaultSeverity is the built-in
// value and is omitted for custom patterns.
type PatternCatalogEntry struct {
	Name            string           `json:"name"`
	Severity        scanner.Severity `json:"severity"`
	DefaultSeverity scanner.Severity `json:"default_severity,omitempty"`
	Category        string           `json:"category"`
	Description     string           `json:"description"`
	Regex           string           `json:"regex"`
}

// PatternCatalog is the GET /api/v1/dashboard/patterns payload.
type PatternCatalog struct {
	Secrets []PatternCatalogEntry `json:"secrets"`
	PII     []PatternCatalogEntry `json:"pii"`
	Custom  []PatternCatalogEntry `json:"custom"`
}

// Human-readable descriptions for secret patterns.
var secretDescriptions = map[string]string{
	"aws_access_key_id":        "AWS Access Key ID (starts with AKIA)",
	"aws_mws_key":              "Amazon Marketplace Web Service key",
	"gcp_api_key":              "Google Cloud Platform API key",
	"gcp_service_account":      "GCP service account JSON credential",
	"azure_storage_key":        "Azure Storage account key",
	"azure_connection_string":  "Azure Storage connection string",
	"github_pat":               "GitHub personal access token (classic)",
	"github_fine_grained_pat":  "GitHub fine-grained personal access token",
	"github_oauth":             "GitHub OAuth access token",
	"github_app_token":         "GitHub App user-to-server token",
	"github_refresh_token":     "GitHub App refresh token",
	"gitlab_pat":               "GitLab personal access token",
	"gitlab_runner_token":      "GitLab CI runner registration token",
	"stripe_secret_key":        "Stripe live secret API key",
	"stripe_publishable_key":   "Stripe live publishable key",
	"stripe_restricted_key":    "Stripe live restricted API key",
	"square_access_token":      "Square access token",
	"square_oauth":             "Square OAuth secret",
	"paypal_braintree":         "PayPal/Braintree production access token",
	"slack_token":              "Slack API token (bot, app, user)",
	"slack_webhook":            "Slack incoming webhook URL",
	"discord_bot_token":        "Discord bot authentication token",
	"discord_webhook":          "Discord webhook URL",
	"telegram_bot_token":       "Telegram Bot API token",
	"twilio_api_key":           "Twilio API key",
	"jwt_token":                "JSON Web Token (JWT)",
	"bearer_token":             "HTTP Bearer authentication token",
	"basic_auth":               "HTTP Basic authentication credentials",
	"private_key_rsa":          "RSA private key (PEM format)",
	"private_key_dsa":          "DSA private key (PEM format)",
	"private_key_ec":           "Elliptic Curve private key (PEM format)",
	"private_key_openssh":      "OpenSSH private key",
	"private_key_pgp":          "PGP private key block",
	"private_key_generic":      "Generic PKCS#8 private key (PEM format)",
	"private_key_encrypted":    "Encrypted PKCS#8 private key (PEM format)",
	"postgres_uri":             "PostgreSQL connection URI with credentials",
	"mysql_uri":                "MySQL connection URI with credentials",
	"mongodb_uri":              "MongoDB connection URI with credentials",
	"redis_uri":                "Redis connection URI with credentials",
	"openai_api_key":           "OpenAI API key",
	"anthropic_api_key":        "Anthropic API key",
	"npm_token":                "npm registry authentication token",
	"pypi_token":               "PyPI API token",
	"sendgrid_api_key":         "SendGrid email API key",
	"mailgun_api_key":          "Mailgun API key",
	"mailchimp_api_key":        "Mailchimp API key",
	"heroku_api_key":           "Heroku platform API key",
	"datadog_api_key":          "Datadog monitoring API key",
	"shopify_access_token":     "Shopify Admin API access token",
	"shopify_shared_secret":    "Shopify app shared secret",
	"password_in_url":          "Password embedded in a URL",
	"generic_secret_assignment": "Secret/password/token assigned in code",
}

// Human-readable descriptions for PII patterns.
var piiDescriptions = map[string]string{
	"ssn":                    "US Social Security Number (XXX-XX-XXXX)",
	"credit_card_visa":       "Visa credit card number (starts with 4)",
	"credit_card_mastercard": "Mastercard credit card number (starts with 51-55)",
	"credit_card_amex":       "American Express card number (starts with 34/37)",
	"credit_card_discover":   "Discover credit card number (starts with 6011/65)",
	"email":                  "Email address",
	"phone_us":               "US phone number",
	"phone_e164":             "International phone number (E.164 format)",
	"ipv4_address":           "IPv4 address",
	"ipv6_address":           "IPv6 address",
}

// Category labels for secret patterns.
var categoryLabels = map[string]string{
	"cloud":         "Cloud",
	"vcs":           "Version Control",
	"payment":       "Payment",
	"communication": "Communication",
	"auth":          "Authentication",
	"private_key":   "Private Keys",
	"database":      "Database",
	"saas":          "SaaS",
	"generic":       "Generic",
}

// Category labels for PII patterns.
var piiCategories = map[string]string{
	"ssn":                    "SSN",
	"credit_card_visa":       "Credit Cards",
	"credit_card_mastercard": "Credit Cards",
	"credit_card_amex":       "Credit Cards",
	"credit_card_discover":   "Credit Cards",
	"email":                  "Email",
	"phone_us":               "Phone",
	"phone_e164":             "Phone",
	"ipv4_address":           "IP Addresses",
	"ipv6_address":           "IP Addresses",
}

// BuildPatternCatalog assembles the catalog from the built-in pattern tables
// and the active custom patterns. Severities reflect the active policy's
// pattern_severity_overrides.
func BuildPatternCatalog(c *Container) PatternCatalog {
	overrides := c.Engine.Policy().PatternSeverityOverrides

	effective := func(name string, builtin scanner.Severity) scanner.Severity {
		if s, ok := overrides[name]; ok {
			return s
		}
		return builtin
	}
	describe := func(descriptions map[string]string, name string) string {
		if d, ok := descriptions[name]; ok {
			return d
		}
		return name
	}

	secretPatterns := scanner.SecretPatterns()
	secrets := make([]PatternCatalogEntry, 0, len(secretPatterns))
	for i := range secretPatterns {
		sp := &secretPatterns[i]
		category := sp.Category
		if label, ok := categoryLabels[category]; ok {
			category = label
		}
		secrets = append(secrets, PatternCatalogEntry{
			Name:            sp.Name,
			Severity:        effective(sp.Name, sp.Severity),
			DefaultSeverity: sp.Severity,
			Category:        category,
			Description:     describe(secretDescriptions, sp.Name),
			Regex:           sp.Regexp.String(),
		})
	}

	piiPatterns := scanner.PIIPatterns()
	pii := make([]PatternCatalogEntry, 0, len(piiPatterns))
	for i := range piiPatterns {
		pp := &piiPatterns[i]
		category, ok := piiCategories[pp.Name]
		if !ok {
			category = "PII"
		}
		pii = append(pii, PatternCatalogEntry{
			Name:            pp.Name,
			Severity:        effective(pp.Name, pp.Severity),
			DefaultSeverity: pp.Severity,
			Category:        category,
			Description:     describe(piiDescriptions, pp.Name),
			Regex:           pp.Regexp.String(),
		})
	}

	custom := []PatternCatalogEntry{}
	if cs, ok := c.Registry.Get(scanner.TypeCustom).(*scanner.CustomScanner); ok {
		for _, cp := range cs.Patterns() {
			custom = append(custom, PatternCatalogEntry{
				Name:        cp.Name,
				Severity:    cp.Severity,
				Category:    "Custom",
				Description: "Custom pattern: " + cp.Name,
				Regex:       cp.Regex,
			})
		}
	}

	return PatternCatalog{Secrets: secrets, PII: pii, Custom: custom}
}
