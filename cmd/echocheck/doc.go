// Command echocheck is the CLI for the Echo-Check media authenticity
// analyzer. It runs the daemon, queues local files for analysis, inspects
// the queue, exports reports, and manages configuration.
package main
