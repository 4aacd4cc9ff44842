// Package widget holds the view models of the drop UI: a delayed
// progress indicator and a candidate picker. They carry no drawing code;
// a renderer reads their snapshots and redraws when notified.
package widget
