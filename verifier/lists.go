package verifier

import "strings"

// Lists holds the reference data consulted before any network call:
// disposable domains, role-account local parts, and the typo→correction
// map. A Lists value is immutable once handed to the classifier.
type Lists struct {
	Disposable map[string]struct{}
	Role       map[string]struct{}
	Typos      map[string]string
}

// ListProvider hands the classifier its current reference lists. Reads
// must be cheap and non-blocking; refresh mechanics live outside the core
// and stale or empty lists degrade gracefully.
type ListProvider interface {
	Lists() *Lists
}

// StaticLists is a fixed ListProvider, used as the fallback when no feed
// is configured and in tests.
type StaticLists struct {
	L *Lists
}

func (s StaticLists) Lists() *Lists { return s.L }

// DefaultLists returns the built-in reference data so classification works
// even when every external feed is unavailable.
func DefaultLists() *Lists {
	disposable := make(map[string]struct{})
	for _, d := range strings.Split(disposableDomainList, "\n") {
		d = strings.TrimSpace(d)
		if d != "" {
			disposable[d] = struct{}{}
		}
	}

	role := make(map[string]struct{})
	for _, r := range strings.Split(roleLocalPartList, "\n") {
		r = strings.TrimSpace(r)
		if r != "" {
			role[r] = struct{}{}
		}
	}

	typos := make(map[string]string, len(commonTypos))
	for wrong, right := range commonTypos {
		typos[wrong] = right
	}

	return &Lists{Disposable: disposable, Role: role, Typos: typos}
}

// Common domain typos and their corrections.
var commonTypos = map[string]string{
	"gamil.com":   "gmail.com",
	"gmai.com":    "gmail.com",
	"gmal.com":    "gmail.com",
	"gmial.com":   "gmail.com",
	"gmail.co":    "gmail.com",
	"gmail.con":   "gmail.com",
	"yaho.com":    "yahoo.com",
	"yahooo.com":  "yahoo.com",
	"hotmai.com":  "hotmail.com",
	"hotnail.com": "hotmail.com",
	"hotmal.com":  "hotmail.com",
	"outlok.com":  "outlook.com",
	"outloo.com":  "outlook.com",
	"iclould.com": "icloud.com",
}

const roleLocalPartList = `
abuse
admin
billing
contact
enquiries
feedback
finance
help
hello
hostmaster
hr
info
jobs
legal
mail
marketing
newsletter
no-reply
noreply
office
postmaster
press
privacy
root
sales
security
support
sysadmin
team
webmaster
`

const disposableDomainList = `
0-mail.com
0clickemail.com
10minutemail.com
10minutemail.co.za
20minutemail.com
30minutemail.com
33mail.com
anonbox.net
anonymbox.com
bugmenot.com
deadaddress.com
despammed.com
discard.email
discardmail.com
dispostable.com
dodgit.com
dontsendmespam.de
e4ward.com
emailsensei.com
fakeinbox.com
getairmail.com
guerrillamail.biz
guerrillamail.com
guerrillamail.de
guerrillamail.net
guerrillamail.org
guerrillamailblock.com
harakirimail.com
incognitomail.com
jetable.org
kasmail.com
killmail.net
klzlk.com
maildrop.cc
mailcatch.com
maileater.com
mailexpire.com
mailforspam.com
mailinator.com
mailinator.net
mailinator.org
mailinator2.com
mailnesia.com
mailnull.com
mailsac.com
meltmail.com
mintemail.com
mytrashmail.com
neverbox.com
nospammail.net
notmailinator.com
objectmail.com
pookmail.com
proxymail.eu
rcpt.at
sharklasers.com
sneakemail.com
sofimail.com
spam4.me
spamavert.com
spambox.us
spamfree24.org
spamgourmet.com
spamhole.com
spaml.com
spamspot.com
suremail.info
temp-mail.io
temp-mail.org
tempail.com
tempemail.net
tempinbox.com
tempmail2.com
tempmailer.com
tempomail.fr
temporaryinbox.com
throwawaymail.com
tmailinator.com
trash-mail.at
trash-mail.com
trash-mail.de
trashmail.at
trashmail.com
trashmail.de
trashmail.me
trashmail.net
trashmail.org
trashymail.com
wegwerfmail.de
wh4f.org
willselfdestruct.com
yopmail.com
yopmail.fr
yopmail.net
zippymail.info
zoemail.org
`
