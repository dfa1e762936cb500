package venues

import "stagedates/internal/showfeed/schedule"

// Source is a page that may list performances of a production.
type Source struct {
	Url string
	// Dedicated pages are about the production, dates on them need no
	// mention of the title nearby unless they sit in a teaser or a card about
	// another production.
	Dedicated bool
	// Discover follows links on a listing page that lead to the production's
	// own pages and scrapes those too.
	Discover bool
}

// Venue describes where and how to scrape a single production.
type Venue struct {
	Slug    string
	Title   string
	Theater string
	Image   string
	BaseUrl string
	// Aliases are other spellings of the title that count as a mention.
	Aliases []string
	Sources []Source
	// LinkHint is a lowercase fragment of the urls of the production's
	// detail pages, it decides which discovered links are followed.
	LinkHint string
}

// Production is the venue's production without any events.
func (v Venue) Production() schedule.Production {
	return schedule.Production{
		Title:   v.Title,
		Theater: v.Theater,
		Image:   v.Image,
		BaseUrl: v.BaseUrl,
	}.Skeleton()
}

func (v Venue) names() []string {
	return append([]string{v.Title}, v.Aliases...)
}

const (
	traviataUrl = "https://staatstheater-braunschweig.de/produktion/la-traviata-8542"
	kometUrl    = "https://www.staatsschauspiel-dresden.de/spielplan/a-z/der-komet/"
	kometTicket = "https://tickets.staatsschauspiel-dresden.de/webshop/webticket/eventlist?production=709"
)

// Catalog returns every venue that is scraped, in the order they are run.
func Catalog() []Venue {
	return []Venue{
		{
			Slug:    "la-traviata",
			Title:   "La traviata",
			Theater: "Staatstheater Braunschweig (Burgplatz Open Air)",
			Image:   "images/la-traviata.jpg",
			BaseUrl: traviataUrl,
			Aliases: []string{"la traviata", "traviata"},
			Sources: []Source{
				{Url: traviataUrl, Dedicated: true},
			},
			LinkHint: "la-traviata",
		},
		{
			Slug:    "der-komet",
			Title:   "Der Komet",
			Theater: "Staatsschauspiel Dresden",
			Image:   "images/der-komet.jpg",
			BaseUrl: kometTicket,
			Aliases: []string{"der komet", "komet"},
			Sources: []Source{
				{Url: kometUrl, Dedicated: true},
				{Url: kometTicket, Dedicated: true},
				{Url: "https://www.staatsschauspiel-dresden.de/spielplan/", Discover: true},
			},
			LinkHint: "der-komet",
		},
	}
}
