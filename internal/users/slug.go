package users

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// slugify lowercases the value, strips diacritics and folds separators to
// underscores, producing a provider-safe login fragment.
func slugify(value string) string {
	out, _, err := transform.String(deaccent, value)
	if err != nil {
		out = value
	}
	out = strings.ToLower(strings.TrimSpace(out))
	out = strings.NewReplacer(" ", "_", ".", "_").Replace(out)
	return out
}

// providerLogin derives the provider-local login from the user's name and
// the account name: first_last@account.
func providerLogin(firstName, lastName, accountName string) string {
	return slugify(firstName) + "_" + slugify(lastName) + "@" + slugify(accountName)
}
