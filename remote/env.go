package remote

import (
	"strings"

	apperrors "github.com/logseq/rsapi/errors"
)

// Profile is a {url_base, bucket, region} triple naming one control-
// plane deployment (spec.md §4.2 "Environments").
type Profile struct {
	Name    string
	URLBase string
	Bucket  string
	Region  string
}

var (
	devProfile = Profile{
		Name:    "dev",
		URLBase: "https://api-dev.logseq.com",
		Bucket:  "logseq-dev-sync-bucket",
		Region:  "us-east-1",
	}
	prodProfile = Profile{
		Name:    "prod",
		URLBase: "https://api.logseq.com",
		Bucket:  "logseq-prod-sync-bucket",
		Region:  "us-east-1",
	}
)

// ResolveProfile maps the host-supplied env string to a Profile,
// accepting the aliases spec.md §4.6 names: "production"/"product"/
// "prod" for prod, "development"/"develop"/"dev" for dev.
func ResolveProfile(env string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "product", "prod":
		return prodProfile, nil
	case "development", "develop", "dev":
		return devProfile, nil
	default:
		return Profile{}, apperrors.Msg(apperrors.KindInvalidArg, "unknown environment %q", env)
	}
}
