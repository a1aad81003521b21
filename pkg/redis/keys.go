package redis

import "strings"

const keyNamespace = "earnpro"

// Keys builds the namespaced key layout shared by every process:
//
//	earnpro:idempotency:<scope>:<id>
//	earnpro:rate_limit:<policy>:<subject>
//	earnpro:session:admin:<jti>
//	earnpro:lock:cron:<job>
type Keys struct{}

func (Keys) IdempotencyKey(scope, id string) string {
	return joinKey("idempotency", scope, id)
}

func (Keys) RateLimitKey(scope string) string {
	return joinKey("rate_limit", scope)
}

func (Keys) AdminSessionKey(tokenID string) string {
	return joinKey("session", "admin", tokenID)
}

func (Keys) CronLockKey(job string) string {
	return joinKey("lock", "cron", job)
}

// joinKey drops blank segments so a missing id never yields "a::b".
func joinKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
