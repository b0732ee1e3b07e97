package config

import "github.com/yndnr/loresync/internal/telemetry/logger"

// Sanitize returns a copy of the config with secret payload values
// masked, for logging at startup.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Subsystems = make([]SubsystemConfig, len(cfg.Subsystems))
	for i, s := range cfg.Subsystems {
		s.Payload = maskPayload(s.Payload)
		sanitized.Subsystems[i] = s
	}
	return &sanitized
}

func maskPayload(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		switch {
		case logger.IsSecretKey(k):
			out[k] = logger.RedactedValue
		default:
			if nested, ok := v.(map[string]any); ok {
				v = maskPayload(nested)
			}
			out[k] = v
		}
	}
	return out
}
