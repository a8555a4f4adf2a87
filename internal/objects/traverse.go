package objects

// LocalReader is the narrow slice of LocalRepo the traversal engine
// needs to walk the local object database during push.
type LocalReader interface {
	ReadObject(oid OID) (*GitObject, error)
	HasObject(oid OID) bool
}

// RemoteFetcher resolves an OID's decoded metadata from the CAS,
// grouped by its containing MultiObject label, with caching left to
// the implementation.
type RemoteFetcher interface {
	FetchObject(oid OID, label string) (*GitObject, error)
}

// EnumerateForPush walks the DAG iteratively depth-first from root,
// returning the OIDs reachable in the local ODB that are not yet keys
// of manifest.Objects (in discovery order) and the OIDs classified as
// submodule tips. An explicit stack keeps arbitrarily deep commit and
// tag chains from overflowing the goroutine stack.
func EnumerateForPush(root OID, reader LocalReader, manifest *RepoData) (toPush []OID, submodules []OID, err error) {
	type stackEntry struct{ oid OID }

	stack := []stackEntry{{oid: root}}
	visited := make(map[OID]bool)
	submoduleSet := make(map[OID]bool)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		oid := top.oid

		if visited[oid] {
			continue
		}
		if _, already := manifest.Objects[oid]; already {
			visited[oid] = true
			continue
		}
		visited[oid] = true

		obj, rerr := reader.ReadObject(oid)
		if rerr != nil {
			return nil, nil, rerr
		}
		toPush = append(toPush, oid)

		switch obj.Kind {
		case KindCommit:
			stack = append(stack, stackEntry{oid: obj.Commit.TreeOID})
			for _, p := range obj.Commit.ParentOIDs {
				stack = append(stack, stackEntry{oid: p})
			}
		case KindTree:
			for _, sub := range obj.Tree.Submodules {
				if !submoduleSet[sub] {
					submoduleSet[sub] = true
					submodules = append(submodules, sub)
				}
			}
			for _, entry := range obj.Tree.EntryOIDs {
				stack = append(stack, stackEntry{oid: entry})
			}
		case KindTag:
			stack = append(stack, stackEntry{oid: obj.Tag.TargetOID})
		case KindBlob:
			// leaf, nothing further to visit
		}
	}
	return toPush, submodules, nil
}

// EnumerateForFetch walks the DAG iteratively depth-first from root,
// returning the OIDs present in manifest.Objects but missing from the
// local ODB, in discovery order. hasLocal reports local ODB presence;
// fetcher resolves an OID's decoded metadata via its containing
// MultiObject, which lets the download set be planned without
// consulting object bytes or the local ODB.
func EnumerateForFetch(root OID, manifest *RepoData, hasLocal func(OID) bool, fetcher RemoteFetcher) (toFetch []OID, err error) {
	stack := []OID{root}
	scheduled := make(map[OID]bool)

	for len(stack) > 0 {
		oid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if hasLocal(oid) {
			continue
		}
		if scheduled[oid] {
			continue
		}

		label, known := manifest.Objects[oid]
		if known && label == SubmoduleTipMarker {
			// Foreign pointer into another repository: a leaf, never
			// fetched, never descended into.
			continue
		}

		scheduled[oid] = true
		toFetch = append(toFetch, oid)

		if !known {
			// Nothing more we can discover about this OID; let the
			// caller's integrity check catch a manifest that promised
			// an object it cannot supply.
			continue
		}

		obj, ferr := fetcher.FetchObject(oid, label)
		if ferr != nil {
			return nil, ferr
		}
		switch obj.Kind {
		case KindCommit:
			stack = append(stack, obj.Commit.TreeOID)
			stack = append(stack, obj.Commit.ParentOIDs...)
		case KindTree:
			stack = append(stack, obj.Tree.EntryOIDs...)
		case KindTag:
			stack = append(stack, obj.Tag.TargetOID)
		case KindBlob:
		}
	}
	return toFetch, nil
}
