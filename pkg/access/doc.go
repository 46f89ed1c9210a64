// Package access decides which plugins a user may use under an owner account.
//
// Access is layered. The owner's own subscription must be usable
// (subscription.EffectiveStatus is trial or active). The owner needs nothing
// more. A team member must also be active and hold an Override granting the
// plugin. Overrides default closed: a member without an override row is
// denied, whatever the member's role grants for non-plugin features.
//
// The read paths CanAccess, ListAccessiblePlugins and PluginState never
// return errors. Unknown plugins, inactive members and store failures
// resolve to no access.
//
// Bulk override updates are applied through OverrideStore.ApplyBatch, so a
// concurrent reader sees either none or all of a batch.
package access
