package config

// EnvPrefix is passed to envconfig; individual fields carry fully-qualified
// names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "MILASSET_DB_DSN"
	EnvDBHost = "MILASSET_DB_HOST"
	EnvDBUser = "MILASSET_DB_USER"
	EnvDBName = "MILASSET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
