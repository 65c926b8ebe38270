//go:build providerinfo

package main

var Title = "Abfallkalender Winterberg"
var URL = "https://abfallkalender.winterberg.de"
