package platform

// Package platform contains pure helper functions with no domain state:
// URL normalization and classification, date token parsing, URL extraction
// from free text, duration formatting, and filesystem helpers.
