package workflow

const helpText = `Send me a sticker to set its alias.
Use inline mode to search stickers on the fly.

Inline queries:
[query] - Search stickers by alias.
[1 - 9] - Show stickers in favorite [1 - 9].
% - Show trending stickers.
[1 - 9] i - Show favorite [1 - 9] without client cache. Useful right after editing a favorite.
,[query] - Search stickers by set alias.
,[query] i - Search stickers by set alias without client cache.

Commands:
/help - Show this message.
/favorite add - Add stickers to a favorite.
/favorite delete - Delete stickers from a favorite.
/alias - Show all aliases.
/bulk - Update the alias of a whole sticker set.`

const (
	txtFavoriteUsage      = "/favorite add - Add stickers to favorite.\n/favorite delete - Delete stickers from favorite."
	txtWhichFavorite      = "Which favorite:"
	txtAddTo              = "Add to favorite %d ..."
	txtDeleteFrom         = "Delete from favorite %d ..."
	txtCounter            = "Favorite %d: %d"
	txtFavoriteDone       = "Succeeded. Now Favorite %d has %d stickers."
	txtAlreadyInGroup     = "The sticker is already in this favorite."
	txtAlreadyElsewhere   = "The sticker is already in favorite %d."
	txtNotInGroup         = "The sticker is not in this favorite."
	txtChooseGroupFirst   = "Choose a favorite first."
	txtSendSticker        = "Send a sticker to me."
	txtCurrentAlias       = "Alias is: %s"
	txtNewAlias           = "New alias is?"
	txtSetTitle           = "Sticker set title: %s"
	txtCurrentSetAlias    = "Set alias is: %s"
	txtNewSetAlias        = "New set alias is?"
	txtCancelPrompt       = "Cancel this action?"
	txtSucceeded          = "Succeeded."
	txtNoSet              = "This sticker does not belong to a sticker set."
	txtSetUnavailable     = "Could not load the sticker set, try again later."
	txtInternalError      = "Something went wrong, please try again."
	txtAliasListHeader    = "alias:\n"
	txtSetAliasListHeader = "set_alias:\n"

	btnFinish = "Finish"
	btnCancel = "Cancel"
)
