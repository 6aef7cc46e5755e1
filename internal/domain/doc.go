// Package domain contains the core entities of the reminder pipeline,
// independent of any storage engine or transport. Reminder status rules
// live here so that every caller enforces the same one-way transitions.
package domain
