package handlers

// ShortLinkBody is the request body shared by the sync and async endpoints.
type ShortLinkBody struct {
	URL       string `doc:"The URL to shorten"                                     example:"https://example.com/very/long/path" format:"uri" json:"url"                 maxLength:"2048" minLength:"1"`
	ExpiresAt string `doc:"Optional expiration. Unparseable values are ignored." example:"2030-01-01T00:00:00Z"                              json:"expiresAt,omitempty" required:"false"`
}

// CreateShortLinkRequest is the request for creating a short URL synchronously.
type CreateShortLinkRequest struct {
	Body ShortLinkBody
}

// CreateShortLinkResponse is the response for a successfully created short URL.
type CreateShortLinkResponse struct {
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body struct {
		ShortURL string `doc:"The full short URL" example:"https://dl.example/ab12cd" json:"shortUrl"`
	}
}

// EnqueueShortLinkRequest is the request for creating a short URL asynchronously.
type EnqueueShortLinkRequest struct {
	Body ShortLinkBody
}

// EnqueueShortLinkResponse reports whether a persistence job was enqueued.
type EnqueueShortLinkResponse struct {
	Body struct {
		Accepted bool `doc:"False when an identical request is already in flight" json:"accepted"`
	}
}
