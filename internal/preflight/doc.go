// Package preflight provides readiness checks for the filesystem paths,
// the catalog, and the external photo source curator depends on.
//
// These checks run in two contexts:
//   - "curator reconcile" calls RunAll before touching the catalog and aborts
//     when any check fails, so a run never starts half-equipped.
//   - "curator doctor" renders every check, the live Unsplash search
//     included. That search is recorded against the hourly quota.
package preflight
