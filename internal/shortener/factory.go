package shortener

// StrategyConfig selects and sizes the strategy used for new codes.
type StrategyConfig struct {
	Name      StrategyName
	MinLength int
	MaxLength int
}

// StrategyFactory resolves strategy names to instances from a fixed registry.
//
// All instances are built up front, so lookups are read-only and safe for concurrent use.
type StrategyFactory struct {
	config     StrategyConfig
	strategies map[StrategyName]Strategy
}

// NewStrategyFactory builds every known strategy with the configured length bounds.
func NewStrategyFactory(config StrategyConfig) *StrategyFactory {
	minLength, maxLength := config.MinLength, config.MaxLength

	return &StrategyFactory{
		config: config,
		strategies: map[StrategyName]Strategy{
			StrategyNanoID: NewNanoIDStrategy(minLength, maxLength),
			StrategyMD5:    NewMD5Strategy(minLength, maxLength),
			StrategySHA256: NewSHA256Strategy(minLength, maxLength),
			StrategyCRC32:  NewCRC32Strategy(minLength, maxLength),
		},
	}
}

// Get returns the strategy registered under name.
func (f *StrategyFactory) Get(name StrategyName) (Strategy, error) {
	s, ok := f.strategies[name]
	if !ok {
		return nil, &UnsupportedStrategyError{Name: name}
	}

	return s, nil
}

// Configured returns the strategy named in the factory's configuration.
func (f *StrategyFactory) Configured() (Strategy, error) {
	return f.Get(f.config.Name)
}

// Names lists the registered strategy names.
func (f *StrategyFactory) Names() []StrategyName {
	return []StrategyName{StrategyNanoID, StrategyMD5, StrategySHA256, StrategyCRC32}
}
