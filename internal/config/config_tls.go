package config

import "fmt"

// ValidateTLSConfig validates just the TLS section. The serve command uses
// it to re-check after flag overrides have been applied.
func (c *Config) ValidateTLSConfig() error {
	return c.validateTLS()
}

// validateTLS validates the TLS configuration
func (c *Config) validateTLS() error {
	tls := c.Server.TLS

	switch tls.Mode {
	case "disabled":
		return nil
	case "server":
		if err := validateCertAndKeyRequired(tls, "server mode"); err != nil {
			return err
		}
		if err := validateNoDuplicateCertSources(tls); err != nil {
			return err
		}
	case "mutual":
		if err := validateCertAndKeyRequired(tls, "mutual mode"); err != nil {
			return err
		}
		if tls.CAFile == "" && tls.CAContent == "" {
			return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
		}
		if err := validateNoDuplicateCertSources(tls); err != nil {
			return err
		}
		if tls.CAFile != "" && tls.CAContent != "" {
			return fmt.Errorf("cannot specify both caFile and caContent - choose one")
		}
		if err := validateClientAuthPolicy(tls); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	return validateTLSVersion(tls)
}

// validateCertAndKeyRequired checks that both certificate and key are provided
func validateCertAndKeyRequired(tls TLSConfig, mode string) error {
	if (tls.CertFile == "" && tls.CertContent == "") || (tls.KeyFile == "" && tls.KeyContent == "") {
		return fmt.Errorf("TLS certificate and key are required for %s (provide either files or content)", mode)
	}
	return nil
}

// validateNoDuplicateCertSources ensures no duplicate sources for cert and key
func validateNoDuplicateCertSources(tls TLSConfig) error {
	if tls.CertFile != "" && tls.CertContent != "" {
		return fmt.Errorf("cannot specify both certFile and certContent - choose one")
	}
	if tls.KeyFile != "" && tls.KeyContent != "" {
		return fmt.Errorf("cannot specify both keyFile and keyContent - choose one")
	}
	return nil
}

// validateClientAuthPolicy validates the client authentication policy
func validateClientAuthPolicy(tls TLSConfig) error {
	switch tls.ClientAuthPolicy {
	case "require", "request", "verify", "":
		return nil // Empty defaults to require
	default:
		return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
	}
}

// validateTLSVersion validates the TLS version configuration
func validateTLSVersion(tls TLSConfig) error {
	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil // Empty defaults to 1.2
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}
