// Package chat contains the moderation reader for Twitch chat.
//
// Reader joins one channel anonymously over the chat relay WebSocket
// (justinfan guest identity) and classifies every inbound IRC line against an
// ordered rule table:
//   - privmsg: remembers each chatter's last message, keyed by lowercased name.
//   - clearchat: a timeout or permanent ban; rendered with the target's last
//     remembered message.
//   - clearmsg: a single deleted message; rendered with the deleted text.
//
// Rules are independent: a line may match any number of them. Before
// classification every line prunes the previous annotation if it reached the
// top of the transcript, so at most one annotation lingers above live chat.
//
// The reader also follows page navigation: moving to another channel's URL
// parts the old channel and joins the new one on the same connection.
package chat
