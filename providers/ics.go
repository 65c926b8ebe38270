//go:build providerinfo

package main

var Title = "ICS"
var URL = "https://icalendar.org"
