// Command refsim replays an encoder reference pattern frame by frame and
// prints every reference decision along with the buffer contents before and
// after it. It is a development aid for tuning reference configurations
// before they reach an encoder.
package main
