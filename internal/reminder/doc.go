// Package reminder fires due reminders. A Worker polls the reminder store on
// a fixed interval, publishes a reminder.fired event for each due reminder and
// commits each reminder as fired on its own, independent of whether the
// event was delivered.
package reminder
