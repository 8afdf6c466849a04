package exempt

import (
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender's domain is exempt from
// surveillance, e.g. automated notification systems whose traffic
// would otherwise flood the pipeline.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new exempt-domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, len(domains))
	for i, domain := range domains {
		normalized[i] = strings.ToLower(strings.TrimSpace(domain))
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized exempt-domain checker", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsExempt checks if the sender's domain is exempt from triage
func (c *Checker) IsExempt(sender string) bool {
	if len(c.domains) == 0 {
		return false
	}

	parts := strings.Split(sender, "@")
	if len(parts) != 2 {
		return false
	}
	domain := strings.ToLower(parts[1])

	for _, exempt := range c.domains {
		if exempt == domain {
			if c.logger != nil {
				c.logger.Debug("Sender domain is exempt",
					zap.String("domain", domain),
					zap.String("sender", sender))
			}
			return true
		}
	}

	return false
}
