//go:build providerinfo

package main

var Title = "Static Source"
var URL = "https://github.com/klabast/wb-services"
