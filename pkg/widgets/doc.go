// Package widgets provides the stock controls of the toolkit.
//
// Button, Panel and Toolbar are templated: their root comes from a
// template id, and each has a default template registered under the
// "stencil" namespace. Label builds its own root.
//
// # Registration
//
// Register adds the widget types to a control registry so templates can
// instantiate them through placeholders:
//
//	<div data-control="stencil.Button" data-binding="text:saveLabel"></div>
//
// Templates returns the default templates; mount them into the repository
// the loader reads from before creating any widget.
//
// # Templates
//
// A replacement template must keep the elements a widget looks up by
// data-name. Panel expects "content"; Button and Toolbar need none.
package widgets
