package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/quantmill/meanrev/pkg/errors"
)

// CheckVersionCompatibility checks whether the running engine satisfies the
// minimum version a backtest configuration declares.
// Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - The engine's minor version must be >= the required minor version
//   - Patch versions are ignored (e.g., 1.2.0 satisfies a 1.2.5 requirement)
//
// Examples:
//   - Engine 1.2.0, Required 1.2.0 -> OK (exact match)
//   - Engine 1.3.0, Required 1.2.0 -> OK (newer minor)
//   - Engine 1.2.0, Required 1.3.0 -> ERROR (engine too old)
//   - Engine 2.0.0, Required 1.2.0 -> ERROR (major differs)
//   - Engine main, Required 1.2.0 -> OK (dev build, skip check)
func CheckVersionCompatibility(engineVersion, requiredVersion string) error {
	// Strip 'v' prefix if present for consistency
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	requiredVersion = strings.TrimPrefix(requiredVersion, "v")

	// Skip version check for "main" (development builds)
	if engineVersion == "main" || requiredVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version '%s'", engineVersion)
	}

	requiredSemver, err := semver.NewVersion(requiredVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid required version '%s'", requiredVersion)
	}

	if engineSemver.Major() != requiredSemver.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"major version mismatch: engine is %d.x.x but config requires %d.x.x",
			engineSemver.Major(), requiredSemver.Major())
	}

	if engineSemver.Minor() < requiredSemver.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"engine %d.%d.x is older than required %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			requiredSemver.Major(), requiredSemver.Minor())
	}

	// Patch versions are ignored, so we're compatible
	return nil
}
