// Package notifier delivers event notifications to Telegram.
//
// Delivery is best-effort: a failed send is logged and recorded but never
// fails the polling cycle that produced it. Sends are rate limited so a
// burst of events (e.g. the first-ever cycle, where every vehicle is new)
// cannot trip Telegram's flood control.
package notifier
