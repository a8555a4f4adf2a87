package objects

import "sort"

func sortStrings(s []string) {
	sort.Strings(s)
}

func sortOIDs(oids []OID) {
	sort.Slice(oids, func(i, j int) bool { return oids[i] < oids[j] })
}
