package config

import "time"

// Base application details
const AppName = "hubmark"
const ConfigDirName = "hubmark"
const ThemesDirName = "themes"
const DefaultConfigFileName = "config.toml" // Main config file
const DefaultLogFileName = "hubmark.log"

// Preview
const DefaultTheme = "dark"
const DefaultAddr = "127.0.0.1:0"
const DefaultReadySignal = "poll"
const DefaultPollInterval = 16 * time.Millisecond
const DefaultFetchDelay = 50 * time.Millisecond

// Source file watching
const DefaultWatchInterval = 250 * time.Millisecond

// UI Layout
const StatusBarHeight = 1

// Status Bar
const MessageTimeout = 4 * time.Second
