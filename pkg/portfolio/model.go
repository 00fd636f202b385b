package portfolio

// RawExperience is one item of GET /api/v1/experiences. Null dates decode
// to nil.
type RawExperience struct {
	Title       string  `json:"title"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

// RawProject is one item of GET /api/v1/portos.
type RawProject struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	Image       string `json:"image"`
	URL         string `json:"url"`
}

// ProjectPage is the data payload of the projects endpoint. The unpaged host
// variant omits last_page.
type ProjectPage struct {
	Data     []RawProject `json:"data"`
	LastPage int          `json:"last_page"`
}

// ExperienceEntry is a rendered timeline item.
type ExperienceEntry struct {
	Title       string `json:"title"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// ProjectEntry is a rendered project card.
type ProjectEntry struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	ImageURL    string   `json:"image_url"`
	WebURL      string   `json:"web_url"`
}
