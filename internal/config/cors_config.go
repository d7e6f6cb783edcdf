package config

import "strings"

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

func (s *Settings) GetAllowedOrigins() AllowedOrigins {
	origins := make(AllowedOrigins, len(s.Cors.AllowedOrigins))
	for _, origin := range s.Cors.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins[origin] = nullValue{}
		}
	}
	return origins
}

func (*Settings) GetAllowedMethods() string {
	return "GET, OPTIONS"
}

func (*Settings) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
