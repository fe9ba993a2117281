package config

const (
	defaultAssetDir         = "~/.local/share/curator/static/images"
	defaultPublicPrefix     = "/static/images/"
	defaultStateDir         = "~/.local/share/curator/state"
	defaultLogDir           = "~/.local/share/curator/logs"
	defaultCatalogDriver    = "sqlite"
	defaultCatalogDSN       = "~/.local/share/curator/brain.db"
	defaultCatalogTable     = "markets"
	defaultIDColumn         = "market_id"
	defaultTitleColumn      = "title"
	defaultCategoryColumn   = "category"
	defaultReferenceColumn  = "image_url"
	defaultUnsplashBaseURL  = "https://api.unsplash.com"
	defaultOrientation      = "landscape"
	defaultMinIntervalMS    = 1000
	defaultHourlyQuota      = 50
	defaultRequestTimeout   = 15
	defaultMinBytes         = 10 * 1024
	defaultBatchSize        = 25
	defaultMaxEntriesPerRun = 200
	defaultMaxFetchesPerRun = 40
	defaultFetchWorkers     = 2
	defaultScanWorkers      = 8
	defaultQueryVariants    = 3
	defaultPagesPerQuery    = 2
	defaultOverridesPath    = "~/.config/curator/overrides.json"
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AssetDir:     defaultAssetDir,
			PublicPrefix: defaultPublicPrefix,
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
		},
		Catalog: Catalog{
			Driver:          defaultCatalogDriver,
			DSN:             defaultCatalogDSN,
			Table:           defaultCatalogTable,
			IDColumn:        defaultIDColumn,
			TitleColumn:     defaultTitleColumn,
			CategoryColumn:  defaultCategoryColumn,
			ReferenceColumn: defaultReferenceColumn,
		},
		Unsplash: Unsplash{
			Enabled:        true,
			BaseURL:        defaultUnsplashBaseURL,
			Orientation:    defaultOrientation,
			MinIntervalMS:  defaultMinIntervalMS,
			HourlyQuota:    defaultHourlyQuota,
			RequestTimeout: defaultRequestTimeout,
			MinBytes:       defaultMinBytes,
		},
		Reconcile: Reconcile{
			BatchSize:        defaultBatchSize,
			MaxEntriesPerRun: defaultMaxEntriesPerRun,
			MaxFetchesPerRun: defaultMaxFetchesPerRun,
			FetchWorkers:     defaultFetchWorkers,
			ScanWorkers:      defaultScanWorkers,
			QueryVariants:    defaultQueryVariants,
			PagesPerQuery:    defaultPagesPerQuery,
			OverridesPath:    defaultOverridesPath,
		},
		Notify: Notify{
			RequestTimeout: defaultNotifyTimeout,
			OnlyIssues:     true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
