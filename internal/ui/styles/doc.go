// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and lipgloss styles of the sentinel TUI.

All colors are lipgloss.AdaptiveColor values, so the palette follows the
terminal's light or dark background. NewTheme detects the color profile with
termenv and builds one Theme per program.

# Palette

  - Cyan - brand color, header title and input prompt
  - Purple - assistant label and dialog borders
  - Emerald - internet mode badge
  - Amber - document mode badge and the clear confirmation
  - Rose - errors

# Status text

RenderSuccess, RenderError, RenderWarning and RenderInfo prefix the message
with an ASCII marker ([OK], [X], [!], [i]) so states remain readable on
monochrome terminals.

# Layout

Theme.SetSize records the window size; GetLayoutMode maps it to narrow
(< 60 columns), medium or wide. The chat view hides the shortcut bar in the
narrow layout.
*/
package styles
