package domain

// Episode is a podcast episode resolved from a share link to a playable audio file.
type Episode struct {
	SourceURL string
	ShowName  string
	Title     string
	FeedURL   string
	AudioURL  string
	ImageURL  string
}

// DownloadOptions tune a single media download.
type DownloadOptions struct {
	// CookiesFromBrowser names a local browser whose cookies yt-dlp should reuse,
	// needed for private Vimeo videos.
	CookiesFromBrowser string
}

// Article is one entry of a newsletter feed.
type Article struct {
	Title         string
	Link          string
	Author        string
	HTML          string
	CoverImageURL string
}
