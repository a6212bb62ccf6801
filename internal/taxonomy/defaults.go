package taxonomy

import (
	"maps"
	"slices"
)

// Research is the restricted academic category.
const Research = "Research"

// DefaultCanonical is the built-in category list.
var DefaultCanonical = []string{
	"Development",
	"Work",
	"Email",
	"Communication",
	"Entertainment",
	"Social",
	"Shopping",
	"News",
	"Finance",
	"Travel",
	"AI & ML",
	"Utilities",
	"Education",
	Research,
	"Documentation",
	"Design",
	"Health",
	"Food",
	"Sports",
	"Gaming",
	"Music",
	"Reference",
}

// DefaultBanned lists generic labels that are never assigned. The terminal
// catch-all is included so a remote proposal of it counts as a rejection.
var DefaultBanned = []string{
	"misc", "miscellaneous", "other", "others", "unknown", "general", "various",
	"random", "stuff", "none", "n/a", "na", "default", "unsorted", "uncategorized",
	"unclassified", "everything else",
}

// DefaultSynonyms maps common variant spellings onto canonical categories.
var DefaultSynonyms = map[string]string{
	"programming":             "Development",
	"coding":                  "Development",
	"code":                    "Development",
	"dev":                     "Development",
	"software":                "Development",
	"software development":    "Development",
	"developer tools":         "Development",
	"engineering":             "Development",
	"productivity":            "Work",
	"business":                "Work",
	"office":                  "Work",
	"project management":      "Work",
	"mail":                    "Email",
	"e-mail":                  "Email",
	"inbox":                   "Email",
	"chat":                    "Communication",
	"messaging":               "Communication",
	"meetings":                "Communication",
	"video":                   "Entertainment",
	"videos":                  "Entertainment",
	"movies":                  "Entertainment",
	"streaming":               "Entertainment",
	"tv":                      "Entertainment",
	"social media":            "Social",
	"social networking":       "Social",
	"shop":                    "Shopping",
	"ecommerce":               "Shopping",
	"e-commerce":              "Shopping",
	"retail":                  "Shopping",
	"media":                   "News",
	"news & media":            "News",
	"journalism":              "News",
	"banking":                 "Finance",
	"money":                   "Finance",
	"investing":               "Finance",
	"crypto":                  "Finance",
	"trips":                   "Travel",
	"ai":                      "AI & ML",
	"ml":                      "AI & ML",
	"llm":                     "AI & ML",
	"machine learning":        "AI & ML",
	"artificial intelligence": "AI & ML",
	"tools":                   "Utilities",
	"utility":                 "Utilities",
	"learning":                "Education",
	"courses":                 "Education",
	"tutorials":               "Education",
	"academic":                Research,
	"scholarly":               Research,
	"science":                 Research,
	"papers":                  Research,
	"docs":                    "Documentation",
	"api reference":           "Documentation",
	"ux":                      "Design",
	"ui design":               "Design",
	"fitness":                 "Health",
	"medical":                 "Health",
	"recipes":                 "Food",
	"cooking":                 "Food",
	"games":                   "Gaming",
	"podcasts":                "Music",
	"wiki":                    "Reference",
	"encyclopedia":            "Reference",
}

// DefaultDomainHints maps well-known hosts to their category. Lookups match the
// exact host or any subdomain of it.
var DefaultDomainHints = map[string]string{
	"github.com":              "Development",
	"gitlab.com":              "Development",
	"bitbucket.org":           "Development",
	"stackoverflow.com":       "Development",
	"stackexchange.com":       "Development",
	"npmjs.com":               "Development",
	"pkg.go.dev":              "Development",
	"go.dev":                  "Development",
	"pypi.org":                "Development",
	"crates.io":               "Development",
	"codepen.io":              "Development",
	"replit.com":              "Development",
	"vercel.com":              "Development",
	"netlify.com":             "Development",
	"developer.mozilla.org":   "Documentation",
	"readthedocs.io":          "Documentation",
	"docs.python.org":         "Documentation",
	"mail.google.com":         "Email",
	"outlook.live.com":        "Email",
	"outlook.office.com":      "Email",
	"mail.yahoo.com":          "Email",
	"mail.proton.me":          "Email",
	"slack.com":               "Communication",
	"discord.com":             "Communication",
	"teams.microsoft.com":     "Communication",
	"zoom.us":                 "Communication",
	"web.whatsapp.com":        "Communication",
	"docs.google.com":         "Work",
	"drive.google.com":        "Work",
	"calendar.google.com":     "Work",
	"notion.so":               "Work",
	"trello.com":              "Work",
	"asana.com":               "Work",
	"atlassian.net":           "Work",
	"linear.app":              "Work",
	"salesforce.com":          "Work",
	"youtube.com":             "Entertainment",
	"netflix.com":             "Entertainment",
	"hulu.com":                "Entertainment",
	"twitch.tv":               "Entertainment",
	"disneyplus.com":          "Entertainment",
	"primevideo.com":          "Entertainment",
	"spotify.com":             "Music",
	"soundcloud.com":          "Music",
	"twitter.com":             "Social",
	"x.com":                   "Social",
	"facebook.com":            "Social",
	"instagram.com":           "Social",
	"linkedin.com":            "Social",
	"reddit.com":              "Social",
	"tiktok.com":              "Social",
	"mastodon.social":         "Social",
	"amazon.com":              "Shopping",
	"ebay.com":                "Shopping",
	"etsy.com":                "Shopping",
	"aliexpress.com":          "Shopping",
	"walmart.com":             "Shopping",
	"bestbuy.com":             "Shopping",
	"nytimes.com":             "News",
	"bbc.com":                 "News",
	"bbc.co.uk":               "News",
	"cnn.com":                 "News",
	"theguardian.com":         "News",
	"reuters.com":             "News",
	"news.ycombinator.com":    "News",
	"paypal.com":              "Finance",
	"chase.com":               "Finance",
	"coinbase.com":            "Finance",
	"bloomberg.com":           "Finance",
	"booking.com":             "Travel",
	"airbnb.com":              "Travel",
	"expedia.com":             "Travel",
	"tripadvisor.com":         "Travel",
	"openai.com":              "AI & ML",
	"chatgpt.com":             "AI & ML",
	"claude.ai":               "AI & ML",
	"huggingface.co":          "AI & ML",
	"gemini.google.com":       "AI & ML",
	"coursera.org":            "Education",
	"udemy.com":               "Education",
	"khanacademy.org":         "Education",
	"arxiv.org":               Research,
	"scholar.google.com":      Research,
	"pubmed.ncbi.nlm.nih.gov": Research,
	"figma.com":               "Design",
	"dribbble.com":            "Design",
	"behance.net":             "Design",
	"wikipedia.org":           "Reference",
	"steampowered.com":        "Gaming",
	"espn.com":                "Sports",
	"allrecipes.com":          "Food",
	"webmd.com":               "Health",
}

// DefaultCriticalDomains lists sites whose category is unambiguous enough to
// override a disagreeing remote label.
var DefaultCriticalDomains = map[string]string{
	"imdb.com":          "Entertainment",
	"netflix.com":       "Entertainment",
	"hulu.com":          "Entertainment",
	"twitch.tv":         "Entertainment",
	"disneyplus.com":    "Entertainment",
	"github.com":        "Development",
	"gitlab.com":        "Development",
	"stackoverflow.com": "Development",
	"mail.google.com":   "Email",
	"outlook.live.com":  "Email",
	"mail.yahoo.com":    "Email",
	"mail.proton.me":    "Email",
	"amazon.com":        "Shopping",
	"ebay.com":          "Shopping",
}

// DefaultAcademicDomains lists scholarly hosts that satisfy the restricted gate.
var DefaultAcademicDomains = []string{
	"arxiv.org",
	"scholar.google.com",
	"pubmed.ncbi.nlm.nih.gov",
	"ncbi.nlm.nih.gov",
	"jstor.org",
	"researchgate.net",
	"semanticscholar.org",
	"sciencedirect.com",
	"springer.com",
	"nature.com",
	"ieeexplore.ieee.org",
	"dl.acm.org",
	"biorxiv.org",
	"ssrn.com",
	"openreview.net",
	"plos.org",
}

// DefaultConfig returns copies of the built-in tables with the given custom
// categories. Callers may extend the returned maps.
func DefaultConfig(custom []Custom) Config {
	return Config{
		Canonical:       slices.Clone(DefaultCanonical),
		Custom:          slices.Clone(custom),
		Banned:          slices.Clone(DefaultBanned),
		Restricted:      []string{Research},
		Synonyms:        maps.Clone(DefaultSynonyms),
		DomainHints:     maps.Clone(DefaultDomainHints),
		CriticalDomains: maps.Clone(DefaultCriticalDomains),
		AcademicDomains: slices.Clone(DefaultAcademicDomains),
	}
}

// Default builds the built-in knowledge without custom categories.
func Default() *Knowledge {
	k, err := New(DefaultConfig(nil))
	if err != nil {
		panic(err)
	}
	return k
}
