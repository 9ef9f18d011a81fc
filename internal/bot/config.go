package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Long polling timeout in seconds
	UpdateTimeout int
	// Drills listed by /review before the first one is shown
	ReviewPreview int
	// Drills shown by /drills
	ListLimit int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeout: 60,
		ReviewPreview: 20,
		ListLimit:     30,
	}
}
