package cli

var (
	RunCheck       = runCheck
	GetIndexConfig = getIndexConfig
)
