package utils

import "strings"

// Classify identifies the hosting service of url or explains why it is not
// acceptable. It has no side effects and is safe for concurrent use.
func Classify(url string) (ServiceKind, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return ServiceUnknown, &ValidationError{Kind: EmptyInput}
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return ServiceUnknown, &ValidationError{Kind: UnsupportedScheme}
	}
	for _, svc := range serviceTable {
		for _, re := range svc.patterns {
			if re.MatchString(url) {
				return svc.kind, nil
			}
		}
	}
	if kind := ServiceKindFromURL(url); kind != ServiceUnknown {
		return ServiceUnknown, &ValidationError{Kind: MalformedForService, Service: kind}
	}
	return ServiceUnknown, &ValidationError{Kind: UnsupportedService}
}
