// Package domain models construction-permit records published by municipal
// open-data portals, and the per-postal-area risk classification derived
// from demographic aggregates.
//
// # Data Sources
//
// Permit records come from independently-operated city catalogs that expose
// one of three protocol families:
//
//	Flat list (Socrata SODA):
//	  A JSON array of objects, one per permit. Dates are ISO "floating
//	  timestamps" like "2024-05-01T00:00:00.000". Supports $limit and
//	  $order query parameters.
//	Feature collection (ArcGIS FeatureServer):
//	  Records nested under features[].attributes; date fields are epoch
//	  milliseconds. Error responses arrive as a 200 with an "error" object.
//	SQL envelope (CARTO SQL API):
//	  A {rows: [...]} envelope produced by a SELECT against the portal's
//	  permits table.
//
// All three map onto [CanonicalRecord] through a per-source [FieldMap];
// adding a catalog of an existing family is a configuration change.
//
// # Field Conventions
//
// Valuations may arrive as numbers, numeric strings, or "$1,234,567"; all
// are parsed, with unknown or negative values stored as zero. Postal codes
// are trimmed to their 5-digit base (ZIP+4 suffixes dropped). Records with
// no usable location text are dropped at normalization, never stored.
//
// # ID Generation
//
// Record IDs are "<origin>-<native permit number>" when the catalog
// publishes one, otherwise a deterministic SHA-256 content hash over
// origin, location, date, and category. Deterministic IDs make the store's
// replace-on-conflict upsert idempotent across refresh cycles. See
// [Normalize].
//
// # Risk Scoring
//
// Demographic aggregates (a poverty numerator/denominator pair and a
// median-structure-build-year proxy, American Community Survey style) are
// fetched per area key and folded into two 1-10 scores:
//
//	crimeScore = clamp(round(povertyRate/25 * 9) + 1, 1, 10)
//	fireScore  = clamp(round(buildingAge/100 * 9) + 1, 1, 10)
//
// with neutral defaults (score 5, age 50) when one indicator is missing.
// The average of the two buckets the area: >= 7 HIGH, >= 4.5 MEDIUM, else
// LOW. An area with neither indicator is skipped for the cycle and keeps
// its previous classification. See [BuildAreaRisk].
package domain
