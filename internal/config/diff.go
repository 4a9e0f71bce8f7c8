package config

// Diff describes what changed between two configs. Only fields that are
// safe to hot-reload are tracked — a policy directory reload must not
// require a server restart (SPEC_FULL §10.3).
type Diff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	PolicyChanged    bool
	ResolveDepthsChanged bool
	NewResolveDepths     ResolveDepthsConfig
}

// DiffConfigs compares old and new configs and returns what changed. Only
// tracks changes that are safe to apply without restart — the Postgres DSN
// and cursor signing key still require a process restart.
func DiffConfigs(old, new *Config) Diff {
	d := Diff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Policy.Dir != new.Policy.Dir || !equalInline(old.Policy.Inline, new.Policy.Inline) {
		d.PolicyChanged = true
	}

	if old.ResolveDepths != new.ResolveDepths {
		d.ResolveDepthsChanged = true
		d.NewResolveDepths = new.ResolveDepths
	}

	return d
}

func equalInline(a, b []PolicyDefinition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Id != b[i].Id || a[i].Effect != b[i].Effect {
			return false
		}
	}
	return true
}
