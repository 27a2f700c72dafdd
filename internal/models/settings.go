package models

// Settings holds the locally persisted client settings.
type Settings struct {
	APIBaseURL string `json:"api_base_url"` // backend root, e.g. "https://api.example.com/api/v1"
	Timezone   string `json:"timezone"`     // IANA timezone name or "Local"
}
