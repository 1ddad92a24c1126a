package parser

import "go.uber.org/zap"

const (
	DefaultCacheSize    = 1000
	DefaultMaxPathDepth = 20
)

type Options struct {
	// Receives fixup warnings and bootstrap details. Nil means no
	// logging.
	Logger *zap.Logger

	// Number of decoded entries to keep around. 0 disables the cache.
	CacheSize int

	// Only compare the fixup values, never restore the original
	// sector tails before parsing the entry.
	NoFixupRestore bool

	// Size and locate the MFT from the first run of its $DATA
	// attribute only. This reproduces the output of older tools on
	// fragmented MFTs.
	FirstRunOnly bool

	// Always use the tolerant attribute iterator.
	ForceLenient bool

	// Maximum number of parents to follow when building a full path.
	MaxPathDepth int
}

func GetDefaultOptions() Options {
	return Options{
		Logger:       zap.NewNop(),
		CacheSize:    DefaultCacheSize,
		MaxPathDepth: DefaultMaxPathDepth,
	}
}

func (self Options) logger() *zap.Logger {
	if self.Logger == nil {
		return zap.NewNop()
	}
	return self.Logger
}
