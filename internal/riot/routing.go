package riot

import "strings"

// Regional clusters.
const (
	ClusterAmericas = "americas"
	ClusterAsia     = "asia"
	ClusterEurope   = "europe"
	ClusterSEA      = "sea"
)

// platformClusters maps platform shards to the regional cluster that serves
// account and match endpoints.
var platformClusters = map[string]string{
	"euw1": ClusterEurope,
	"eun1": ClusterEurope,
	"tr1":  ClusterEurope,
	"ru":   ClusterEurope,
	"na1":  ClusterAmericas,
	"br1":  ClusterAmericas,
	"la1":  ClusterAmericas,
	"la2":  ClusterAmericas,
	"kr":   ClusterAsia,
	"jp1":  ClusterAsia,
	"oc1":  ClusterSEA,
}

// RegionalCluster returns the cluster for a platform code.
// Unknown platforms route to europe.
func RegionalCluster(platform string) string {
	if cluster, ok := platformClusters[strings.ToLower(strings.TrimSpace(platform))]; ok {
		return cluster
	}
	return ClusterEurope
}

// IsPlatform reports whether platform is a known platform code.
func IsPlatform(platform string) bool {
	_, ok := platformClusters[strings.ToLower(strings.TrimSpace(platform))]
	return ok
}

// route selects which host an endpoint is addressed by.
type route int

const (
	routeRegional route = iota
	routePlatform
)

func (r route) host(platform string) string {
	if r == routePlatform {
		return strings.ToLower(strings.TrimSpace(platform))
	}
	return RegionalCluster(platform)
}
