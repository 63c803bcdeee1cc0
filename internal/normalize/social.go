package normalize

import (
	"regexp"
	"strings"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

var (
	reInstagramURL = regexp.MustCompile(`(?i)instagram\.com/([A-Za-z0-9._]{2,30})`)
	reInstagramAt  = regexp.MustCompile(`@([A-Za-z0-9._]{2,30})`)
	reFacebookURL  = regexp.MustCompile(`(?i)(?:facebook|fb)\.com/([A-Za-z0-9.\-]{2,60})`)
	reVKURL        = regexp.MustCompile(`(?i)vk\.com/([A-Za-z0-9._\-]{2,60})`)
	reTelegramURL  = regexp.MustCompile(`(?i)(?:t\.me|telegram\.me)/([A-Za-z0-9_]{2,40})`)
)

// Social extracts platform handles from URLs, bios and other free text.
// First hit per platform wins; later fields never overwrite earlier ones.
// Instagram handles are stored @-prefixed, other platforms keep the raw slug.
func Social(fields ...string) map[string]string {
	out := map[string]string{}
	put := func(platform, handle string) {
		if handle == "" {
			return
		}
		if _, ok := out[platform]; !ok {
			out[platform] = handle
		}
	}

	for _, f := range fields {
		f = CleanText(f)
		if f == "" {
			continue
		}
		if m := reInstagramURL.FindStringSubmatch(f); m != nil {
			put(domain.PlatformInstagram, "@"+strings.Trim(m[1], "."))
		}
		if m := reFacebookURL.FindStringSubmatch(f); m != nil {
			put(domain.PlatformFacebook, m[1])
		}
		if m := reVKURL.FindStringSubmatch(f); m != nil {
			put(domain.PlatformVK, m[1])
		}
		if m := reTelegramURL.FindStringSubmatch(f); m != nil {
			put(domain.PlatformTelegram, m[1])
		}
	}

	// Bare @handle only counts as instagram when nothing URL-shaped claimed it.
	if _, ok := out[domain.PlatformInstagram]; !ok {
		for _, f := range fields {
			if strings.Contains(f, "/") {
				continue // URLs handled above; a path @ is not a handle
			}
			if m := reInstagramAt.FindStringSubmatch(f); m != nil {
				put(domain.PlatformInstagram, "@"+strings.Trim(m[1], "."))
				break
			}
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
