/*
Package session offers a single message OData read Session.

Applications implement the Handler interface (or use Handlers to
adapt plain functions) to receive the payload read from a message.

# Session implementation and execution overview

Sessions are created using the New function, providing the input
message (see package message) along with a session Config. A Config
is usually loaded from a YAML document with LoadConfig:

	profile: lenient-client
	max-nesting-depth: 32
	atom-metadata: true
	report-undeclared-links: true
	base-uri: http://host/service/
	metadata: ./metadata.xml

The metadata key names a CSDL document, loaded as the EDM model used
to validate the payload.

# Session execution

The Run function takes a base Session (as created by New) and a
Handler implementation. Unless the Config names a payload kind, Run
first detects the payload kind by peeking at the message prefix;
detection does not consume message bytes. The first detected candidate
whose root element matched is then read. Run calls the Handler
OnPayload method with the payload read, or OnError if detection or
reading failed, in which case the Session Errors method returns the
failure. The message is closed once the handler returns.
*/
package session
