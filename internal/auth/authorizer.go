package auth

import drepo "PriceGate/internal/domain/repository"

// StaticAuthorizer checks callers against config-provided role key sets.
// It is the whole of access control here: the oracle treats it as an opaque
// predicate and never inspects keys itself.
type StaticAuthorizer struct {
	assetListing map[string]struct{}
	poolAdmin    map[string]struct{}
}

// New builds an authorizer from the two role key lists.
func New(assetListingKeys, poolAdminKeys []string) *StaticAuthorizer {
	a := &StaticAuthorizer{
		assetListing: make(map[string]struct{}, len(assetListingKeys)),
		poolAdmin:    make(map[string]struct{}, len(poolAdminKeys)),
	}
	for _, k := range assetListingKeys {
		if k != "" {
			a.assetListing[k] = struct{}{}
		}
	}
	for _, k := range poolAdminKeys {
		if k != "" {
			a.poolAdmin[k] = struct{}{}
		}
	}
	return a
}

func (a *StaticAuthorizer) IsAssetListingAdmin(caller string) bool {
	_, ok := a.assetListing[caller]
	return ok
}

func (a *StaticAuthorizer) IsPoolAdmin(caller string) bool {
	_, ok := a.poolAdmin[caller]
	return ok
}

var _ drepo.Authorizer = (*StaticAuthorizer)(nil)
