package enrich

import "github.com/digital-duende/leadfinder/internal/model"

// entityTypeKeywords maps each entity type to the phrases that indicate it.
// Classification counts occurrences per type; the highest total wins and
// ties resolve in declaration order, so more specific types come first.
var entityTypeKeywords = []struct {
	Type     model.EntityType
	Keywords []string
}{
	{model.TypeClub, []string{"nightclub", "night club", "dance club", "club"}},
	{model.TypeBar, []string{"bar ", "cocktail bar", "dive bar", "sports bar", "pub"}},
	{model.TypeLounge, []string{"lounge", "ultra lounge"}},
	{model.TypeRooftop, []string{"rooftop", "roof deck", "sky bar"}},
	{model.TypeVenue, []string{"live music venue", "music venue", "concert venue", "music hall"}},
	{model.TypeHotel, []string{"hotel", "resort", "inn", "suites"}},
	{model.TypeEventSpace, []string{"event space", "event center", "event venue", "banquet", "ballroom", "conference"}},
	{model.TypeRestaurant, []string{"restaurant", "dining", "bistro", "grill", "eatery"}},
	{model.TypeBreweryWinery, []string{"brewery", "winery", "taproom", "tasting room"}},
	{model.TypeSchool, []string{"dance school", "music school", "academy", "lessons", "classes for"}},
	{model.TypeStudio, []string{"dance studio", "yoga studio", "recording studio", "studio rental"}},
	{model.TypeEventPlanner, []string{"event planner", "event planning", "event coordinator", "event management"}},
	{model.TypePromoter, []string{"promoter", "promotion", "event promoter"}},
	{model.TypeFestival, []string{"festival", "street fair", "fair", "carnival"}},
}

// musicFitKeywords are the style tags searched for in page text.
var musicFitKeywords = []string{
	"latin", "reggaeton", "salsa", "bachata", "cumbia",
	"open format", "top 40", "hip hop", "hip-hop", "r&b",
	"house", "techno", "edm", "electronic",
	"corporate", "cocktail hour", "dinner music",
	"karaoke", "live band", "live music", "live dj",
	"pool party", "day party", "after party",
	"birthday", "anniversary", "celebration",
	"charity", "fundraiser", "gala", "benefit",
}

// eventTypeIndicators are the event phrases searched for on venue pages.
var eventTypeIndicators = []string{
	"dj night", "dj nights", "live dj",
	"private party", "private parties", "private event", "private events",
	"corporate mixer", "corporate event", "corporate party",
	"holiday party", "new year", "nye",
	"pool party", "day party",
	"happy hour", "ladies night",
	"latin night", "reggaeton night", "salsa night",
	"karaoke night",
	"live entertainment", "live music",
	"bottle service", "vip",
	"themed party", "themed event",
	"birthday party", "birthday celebration",
	"charity event", "fundraiser", "gala",
	"golf tournament", "after party",
}

// budgetHighSignals and budgetLowSignals drive the rough spend heuristic.
var (
	budgetHighSignals = []string{"bottle service", "vip table", "premium", "luxury", "upscale", "fine dining"}
	budgetLowSignals  = []string{"no cover", "free entry", "happy hour special", "dive bar"}
)
