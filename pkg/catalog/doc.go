// Package catalog holds the read-only plugin catalog: the paid optional
// feature modules owners can trial and subscribe to.
//
// Plugins come from a Source. The package ships an in-memory source, a YAML
// file source and a caching decorator; pgstore provides a Postgres-backed one.
//
//	src := catalog.NewCachedSource(
//	    catalog.NewFileSource("plugins.yaml"),
//	    redis.NewStorage(client, "bookingkit:"),
//	    10*time.Minute,
//	)
//	cat, err := catalog.New(ctx, src, catalog.WithRefreshInterval(time.Minute))
//	if err != nil {
//	    return err
//	}
//	reports, err := cat.GetBySlug(ctx, "reports")
//
// A Catalog validates every snapshot (ids and slugs must be present and
// unique) and lists plugins featured first, then by name. Refreshing is lazy:
// with WithRefreshInterval the first read after the interval reloads the
// source, and a failed reload keeps the previous snapshot.
//
// Inactive plugins remain resolvable so existing subscriptions keep working,
// but Plugin.Purchasable reports false and the subscription service refuses
// new trials and checkouts for them with ErrPluginUnavailable.
package catalog
