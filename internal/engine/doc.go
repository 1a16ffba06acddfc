package engine

// Package engine defines the seam to the external media extraction and
// download engine, plus the yt-dlp implementation built on
// github.com/lrstanley/go-ytdlp. The rest of the system depends only on the
// Resolver and Downloader interfaces; tests substitute fakes.
