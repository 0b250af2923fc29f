package display

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	MsgCartAdded     = "cart.added"
	MsgLoginRequired = "cart.login_required"
)

var translations = map[string]map[language.Tag]string{
	MsgCartAdded: {
		language.English:   "%s was added to your cart",
		language.Norwegian: "%s er lagt i handlekurven",
	},
	MsgLoginRequired: {
		language.English:   "Log in to add items to your cart",
		language.Norwegian: "Logg inn for å legge varer i handlekurven",
	},
}

var messages = mustBuildCatalog()

func mustBuildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, byLang := range translations {
		for tag, msg := range byLang {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("register message %s/%s: %v", key, tag, err))
			}
		}
	}
	return b
}

// Message formats a catalog message in the requested language.
func Message(key, lang string, args ...any) string {
	tag := language.English
	if Normalize(lang) == LangNorwegian {
		tag = language.Norwegian
	}
	return message.NewPrinter(tag, message.Catalog(messages)).Sprintf(key, args...)
}
